package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field names one column of a natality record.
type Field string

const (
	WeightPounds   Field = "weight_pounds"
	IsMale         Field = "is_male"
	MotherAge      Field = "mother_age"
	MotherRace     Field = "mother_race"
	Plurality      Field = "plurality"
	GestationWeeks Field = "gestation_weeks"
	MotherMarried  Field = "mother_married"
	CigaretteUse   Field = "cigarette_use"
	AlcoholUse     Field = "alcohol_use"
	Key            Field = "key"
)

// Fields lists every column in CSV order.
var Fields = []Field{
	WeightPounds,
	IsMale,
	MotherAge,
	MotherRace,
	Plurality,
	GestationWeeks,
	MotherMarried,
	CigaretteUse,
	AlcoholUse,
	Key,
}

var (
	ErrFieldMissing = errors.New("field not present in record")
	ErrFieldType    = errors.New("field has wrong type")
)

// Record is the read-only view the prediction client needs of a domain record.
type Record interface {
	StringField(f Field) (string, error)
	FloatField(f Field) (float64, error)
}

// Baby is a natality record keyed by Field.
type Baby struct {
	values map[Field]string
}

func NewBaby(values map[Field]string) Baby {
	copied := make(map[Field]string, len(values))
	for f, v := range values {
		copied[f] = v
	}
	return Baby{values: copied}
}

// ParseBabyCSV parses one header-less row in Fields order. Empty columns are
// kept as present-but-empty values.
func ParseBabyCSV(line string) (Baby, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if len(parts) < len(Fields) {
		return Baby{}, fmt.Errorf("csv row has %d columns, want %d", len(parts), len(Fields))
	}
	values := make(map[Field]string, len(Fields))
	for i, f := range Fields {
		values[f] = strings.TrimSpace(parts[i])
	}
	return Baby{values: values}, nil
}

func (b Baby) StringField(f Field) (string, error) {
	v, ok := b.values[f]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFieldMissing, f)
	}
	return v, nil
}

func (b Baby) FloatField(f Field) (float64, error) {
	v, ok := b.values[f]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrFieldMissing, f)
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrFieldType, f, v)
	}
	return parsed, nil
}

// Key returns the record identity, empty when the record has none.
func (b Baby) Key() string {
	return b.values[Key]
}

// ActualWeight returns the recorded birth weight when the record carries one.
func (b Baby) ActualWeight() (float64, bool) {
	w, err := b.FloatField(WeightPounds)
	if err != nil {
		return 0, false
	}
	return w, true
}

type PredictionRecord struct {
	Key             string    `db:"key" json:"key"`
	PredictedWeight float64   `db:"predicted_weight" json:"predicted_weight"`
	ActualWeight    *float64  `db:"actual_weight" json:"actual_weight,omitempty"`
	PredictedAt     time.Time `db:"predicted_at" json:"predicted_at"`
}
