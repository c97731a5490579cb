package complaint

import "strconv"

// Template field names, in the order they are validated.
const (
	FieldComplaintID       = "COMPLAINT_ID"
	FieldComplaintNumber   = "COMPLAINT_NUMBER"
	FieldCreatorID         = "CREATOR_ID"
	FieldCreatorName       = "CREATOR_NAME"
	FieldExpertID          = "EXPERT_ID"
	FieldExpertName        = "EXPERT_NAME"
	FieldClientID          = "CLIENT_ID"
	FieldClientName        = "CLIENT_NAME"
	FieldConsumptionID     = "CONSUMPTION_ID"
	FieldConsumptionNumber = "CONSUMPTION_NUMBER"
	FieldAgreementNumber   = "AGREEMENT_NUMBER"
	FieldDate              = "DATE"
	FieldDifferences       = "DIFFERENCES"
)

// TemplateData is the flat context handed to the template renderer.
type TemplateData struct {
	ComplaintID       int64
	ComplaintNumber   string
	CreatorID         int64
	CreatorName       string
	ExpertID          int64
	ExpertName        string
	ClientID          int64
	ClientName        string
	ConsumptionID     int64
	ConsumptionNumber string
	AgreementNumber   string
	Date              string
	Differences       string
}

// Field is one named template value; exactly one of Int or Str is meaningful.
type Field struct {
	Name  string
	IsInt bool
	Int   int64
	Str   string
}

func (f Field) String() string {
	if f.IsInt {
		return strconv.FormatInt(f.Int, 10)
	}
	return f.Str
}

// empty reports loose emptiness: zero ints, "" and "0" all count.
func (f Field) empty() bool {
	if f.IsInt {
		return f.Int == 0
	}
	return f.Str == "" || f.Str == "0"
}

func intField(name string, v int64) Field { return Field{Name: name, IsInt: true, Int: v} }
func strField(name, v string) Field       { return Field{Name: name, Str: v} }

// Fields lists the template values in declaration order.
func (d TemplateData) Fields() []Field {
	return []Field{
		intField(FieldComplaintID, d.ComplaintID),
		strField(FieldComplaintNumber, d.ComplaintNumber),
		intField(FieldCreatorID, d.CreatorID),
		strField(FieldCreatorName, d.CreatorName),
		intField(FieldExpertID, d.ExpertID),
		strField(FieldExpertName, d.ExpertName),
		intField(FieldClientID, d.ClientID),
		strField(FieldClientName, d.ClientName),
		intField(FieldConsumptionID, d.ConsumptionID),
		strField(FieldConsumptionNumber, d.ConsumptionNumber),
		strField(FieldAgreementNumber, d.AgreementNumber),
		strField(FieldDate, d.Date),
		strField(FieldDifferences, d.Differences),
	}
}

// Map renders every field as a string, keyed by field name.
func (d TemplateData) Map() map[string]string {
	fields := d.Fields()
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = f.String()
	}
	return out
}

// Validate fails on the first empty field. A legitimately zero id is
// rejected too; dispatch never proceeds with a partial context.
func (d TemplateData) Validate() error {
	for _, f := range d.Fields() {
		if f.empty() {
			return validationError(f.Name)
		}
	}
	return nil
}

func assembleTemplateData(req NotificationRequest, client *Contractor, creator, expert *Employee, differences string) TemplateData {
	return TemplateData{
		ComplaintID:       req.ComplaintID,
		ComplaintNumber:   req.ComplaintNumber,
		CreatorID:         req.CreatorID,
		CreatorName:       creator.FullName(),
		ExpertID:          req.ExpertID,
		ExpertName:        expert.FullName(),
		ClientID:          req.ClientID,
		ClientName:        client.DisplayName(),
		ConsumptionID:     req.ConsumptionID,
		ConsumptionNumber: req.ConsumptionNumber,
		AgreementNumber:   req.AgreementNumber,
		Date:              req.Date,
		Differences:       differences,
	}
}
