package bootstrap

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"niederschlag-server/internal/modules/precipitation/types"
)

//go:embed data/daten.json
var embeddedFS embed.FS

const embeddedName = "data/daten.json"

// Snapshot is a named source of record JSON.
type Snapshot struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// EmbeddedSnapshot is the snapshot compiled into the binary.
func EmbeddedSnapshot() Snapshot {
	return Snapshot{
		Name: "embedded:" + embeddedName,
		Open: func() (io.ReadCloser, error) { return embeddedFS.Open(embeddedName) },
	}
}

func FileSnapshot(path string) Snapshot {
	return Snapshot{
		Name: path,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// snapshotRow mirrors one object of the snapshot array. Keys not listed
// here are ignored.
type snapshotRow struct {
	NUTS         text    `json:"NUTS"`
	DistrictCode integer `json:"DISTRICT_CODE"`
	RefYear      integer `json:"REF_YEAR"`
	RefDate      integer `json:"REF_DATE"`
	P            text    `json:"P"`
	PMax         text    `json:"P_MAX"`
	PMin         text    `json:"P_MIN"`
}

func (r snapshotRow) record() types.Record {
	return types.Record{
		RegionCode:       r.NUTS.value,
		DistrictCode:     r.DistrictCode.value,
		RefYear:          r.RefYear.value,
		RefDate:          r.RefDate.value,
		Precipitation:    r.P.value,
		PrecipitationMax: r.PMax.value,
		PrecipitationMin: r.PMin.value,
	}
}

// Decode reads a JSON array of record objects. Scalars are coerced the way
// the upstream dataset needs: numbers become their literal text in string
// fields, numeric strings become integers, null leaves the zero value.
func Decode(r io.Reader) ([]types.Record, error) {
	var rows []snapshotRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, err
	}
	out := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// text is a nullable string that also accepts JSON numbers and booleans.
type text struct {
	value *string
}

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.value = nil
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t.value = &s
		return nil
	case '{', '[':
		return fmt.Errorf("cannot use JSON %s as text", kind(b[0]))
	default:
		// numbers and booleans keep their literal spelling
		s := string(b)
		t.value = &s
		return nil
	}
}

// integer accepts JSON numbers (fractions are truncated) and numeric
// strings; null and "" give 0.
type integer struct {
	value int
}

var errNotInteger = errors.New("not an integer")

func (n *integer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		n.value = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = string(bytes.TrimSpace([]byte(s)))
		if s == "" {
			n.value = 0
			return nil
		}
	}
	v, err := parseInteger(s)
	if err != nil {
		return fmt.Errorf("%q: %w", s, err)
	}
	n.value = v
	return nil
}

func parseInteger(s string) (int, error) {
	if i, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotInteger
	}
	if f > math.MaxInt || f < math.MinInt {
		return 0, errNotInteger
	}
	return int(f), nil
}

func kind(c byte) string {
	if c == '{' {
		return "object"
	}
	return "array"
}
