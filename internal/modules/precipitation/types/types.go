package types

// Record is one daily weather-station observation as stored. JSON tags use
// the upstream dataset keys, so marshalling a Record produces the raw entity
// shape. Precipitation values stay strings: upstream emits placeholders that
// are not numbers.
type Record struct {
	ID               int64   `db:"id" json:"id"`
	RegionCode       *string `db:"region_code" json:"NUTS"`
	DistrictCode     int     `db:"district_code" json:"DISTRICT_CODE"`
	RefYear          int     `db:"ref_year" json:"REF_YEAR"`
	RefDate          int     `db:"ref_date" json:"REF_DATE"`
	Precipitation    *string `db:"precipitation" json:"P"`
	PrecipitationMax *string `db:"precipitation_max" json:"P_MAX"`
	PrecipitationMin *string `db:"precipitation_min" json:"P_MIN"`
}

// RecordDTO is the public shape served by GET /.
type RecordDTO struct {
	ID           int64   `json:"id"`
	Nuts1        *string `json:"nuts1"`
	DistrictCode int     `json:"districtCode"`
	RefYear      int     `json:"refYear"`
	RefDate      int     `json:"refDate"`
	P            *string `json:"p"`
}

func NewRecordDTO(r Record) RecordDTO {
	return RecordDTO{
		ID:           r.ID,
		Nuts1:        r.RegionCode,
		DistrictCode: r.DistrictCode,
		RefYear:      r.RefYear,
		RefDate:      r.RefDate,
		P:            r.Precipitation,
	}
}

// NewRecordDTOs maps records in order. The result is never nil.
func NewRecordDTOs(records []Record) []RecordDTO {
	out := make([]RecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, NewRecordDTO(r))
	}
	return out
}
