package complaint

import "context"

// Localization keys used by the operation.
const (
	keyNewPositionAdded      = "NewPositionAdded"
	keyPositionStatusChanged = "PositionStatusHasChanged"
	keyEmployeeEmailSubject  = "complaintEmployeeEmailSubject"
	keyEmployeeEmailBody     = "complaintEmployeeEmailBody"
	keyClientEmailSubject    = "complaintClientEmailSubject"
	keyClientEmailBody       = "complaintClientEmailBody"
	placeholderFrom          = "FROM"
	placeholderTo            = "TO"
)

// differencesMessage describes what happened to the position. An empty
// string means no description applies; the template validator rejects it.
func (o *Operation) differencesMessage(ctx context.Context, typ NotificationType, diff *Differences, resellerID int64) (string, error) {
	switch {
	case typ == TypeNew:
		msg, err := o.renderer.Render(ctx, keyNewPositionAdded, nil, resellerID)
		if err != nil {
			return "", collaboratorError("render differences", err)
		}
		return msg, nil

	case typ == TypeChange && !diff.empty():
		from, err := o.statuses.StatusName(ctx, diff.From)
		if err != nil {
			return "", collaboratorError("get status name", err)
		}
		to, err := o.statuses.StatusName(ctx, diff.To)
		if err != nil {
			return "", collaboratorError("get status name", err)
		}

		msg, err := o.renderer.Render(ctx, keyPositionStatusChanged, map[string]string{
			placeholderFrom: from,
			placeholderTo:   to,
		}, resellerID)
		if err != nil {
			return "", collaboratorError("render differences", err)
		}
		return msg, nil
	}

	return "", nil
}

// empty reports whether the payload carries no transition. An object without
// from/to ({}) counts as absent.
func (d *Differences) empty() bool {
	return d == nil || (d.From == 0 && d.To == 0)
}
