package complaint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTemplateData() TemplateData {
	return TemplateData{
		ComplaintID:       1,
		ComplaintNumber:   "C-1",
		CreatorID:         2,
		CreatorName:       "Ann Creator",
		ExpertID:          3,
		ExpertName:        "Eve Expert",
		ClientID:          4,
		ClientName:        "John Doe",
		ConsumptionID:     5,
		ConsumptionNumber: "R-5",
		AgreementNumber:   "AG-5",
		Date:              "2024-05-01",
		Differences:       "New position added",
	}
}

func TestTemplateData_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TemplateData)
		field  string
	}{
		{"complete", func(*TemplateData) {}, ""},
		{"zero complaint id", func(d *TemplateData) { d.ComplaintID = 0 }, FieldComplaintID},
		{"empty creator name", func(d *TemplateData) { d.CreatorName = "" }, FieldCreatorName},
		{"zero string counts as empty", func(d *TemplateData) { d.AgreementNumber = "0" }, FieldAgreementNumber},
		{"empty differences", func(d *TemplateData) { d.Differences = "" }, FieldDifferences},
		{"first empty field wins", func(d *TemplateData) { d.Date = ""; d.ExpertID = 0 }, FieldExpertID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validTemplateData()
			tt.mutate(&d)

			err := d.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			opErr := requireKind(t, err, KindValidation)
			assert.Equal(t, tt.field, opErr.Field)
			assert.Equal(t, "Template Data ("+tt.field+") is empty!", opErr.Message)
		})
	}
}

func TestTemplateData_Map(t *testing.T) {
	m := validTemplateData().Map()

	assert.Len(t, m, 13)
	assert.Equal(t, "1", m[FieldComplaintID])
	assert.Equal(t, "John Doe", m[FieldClientName])
	assert.Equal(t, "5", m[FieldConsumptionID])
	assert.Equal(t, "New position added", m[FieldDifferences])
}

func TestTemplateData_FieldsOrder(t *testing.T) {
	names := make([]string, 0, 13)
	for _, f := range validTemplateData().Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		FieldComplaintID, FieldComplaintNumber, FieldCreatorID, FieldCreatorName,
		FieldExpertID, FieldExpertName, FieldClientID, FieldClientName,
		FieldConsumptionID, FieldConsumptionNumber, FieldAgreementNumber,
		FieldDate, FieldDifferences,
	}, names)
}

func TestContractor_DisplayName(t *testing.T) {
	assert.Equal(t, "John Doe", (&Contractor{FirstName: " John ", LastName: "Doe", Name: "jdoe"}).DisplayName())
	assert.Equal(t, "Doe", (&Contractor{LastName: "Doe"}).DisplayName())
	assert.Equal(t, "jdoe", (&Contractor{Name: "jdoe"}).DisplayName())
	assert.Empty(t, (&Contractor{}).DisplayName())
}
