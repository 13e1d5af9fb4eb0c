package mlclient

import (
	"errors"

	"babyweight_service/internal/domain/model"
)

var errEmptyField = errors.New("required field is empty")

// Instance is one model input in the wire format of the babyweight model.
type Instance struct {
	IsMale         string  `json:"is_male"`
	MotherAge      float64 `json:"mother_age"`
	MotherRace     string  `json:"mother_race"`
	Plurality      float64 `json:"plurality"`
	GestationWeeks float64 `json:"gestation_weeks"`
	MotherMarried  string  `json:"mother_married,omitempty"`
	CigaretteUse   string  `json:"cigarette_use,omitempty"`
	AlcoholUse     string  `json:"alcohol_use,omitempty"`
}

// NewInstance extracts the model inputs from rec.
func NewInstance(rec model.Record) (Instance, error) {
	var (
		inst Instance
		err  error
	)
	if inst.IsMale, err = requiredString(rec, model.IsMale); err != nil {
		return Instance{}, err
	}
	if inst.MotherAge, err = requiredFloat(rec, model.MotherAge); err != nil {
		return Instance{}, err
	}
	if inst.MotherRace, err = requiredString(rec, model.MotherRace); err != nil {
		return Instance{}, err
	}
	if inst.Plurality, err = requiredFloat(rec, model.Plurality); err != nil {
		return Instance{}, err
	}
	if inst.GestationWeeks, err = requiredFloat(rec, model.GestationWeeks); err != nil {
		return Instance{}, err
	}
	if inst.MotherMarried, err = optionalString(rec, model.MotherMarried); err != nil {
		return Instance{}, err
	}
	if inst.CigaretteUse, err = optionalString(rec, model.CigaretteUse); err != nil {
		return Instance{}, err
	}
	if inst.AlcoholUse, err = optionalString(rec, model.AlcoholUse); err != nil {
		return Instance{}, err
	}
	return inst, nil
}

func requiredString(rec model.Record, f model.Field) (string, error) {
	v, err := rec.StringField(f)
	if err != nil {
		return "", &FieldAccessError{Field: f, Err: err}
	}
	if v == "" {
		return "", &FieldAccessError{Field: f, Err: errEmptyField}
	}
	return v, nil
}

// optionalString treats a missing field like an empty one.
func optionalString(rec model.Record, f model.Field) (string, error) {
	v, err := rec.StringField(f)
	if errors.Is(err, model.ErrFieldMissing) {
		return "", nil
	}
	if err != nil {
		return "", &FieldAccessError{Field: f, Err: err}
	}
	return v, nil
}

func requiredFloat(rec model.Record, f model.Field) (float64, error) {
	v, err := rec.FloatField(f)
	if err != nil {
		return 0, &FieldAccessError{Field: f, Err: err}
	}
	return v, nil
}
