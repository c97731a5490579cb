package complaint

import (
	"context"
	"fmt"
)

func (o *Operation) resolveReseller(ctx context.Context, resellerID int64) (*Seller, error) {
	seller, err := o.directory.Seller(ctx, resellerID)
	if err != nil {
		return nil, collaboratorError("get seller", err)
	}
	if seller == nil {
		return nil, notFoundError(msgSellerNotFound)
	}
	return seller, nil
}

// resolveClient collapses "missing", "not a customer" and "belongs to another
// reseller" into one NotFound error.
func (o *Operation) resolveClient(ctx context.Context, clientID, resellerID int64) (*Contractor, error) {
	client, err := o.directory.Contractor(ctx, clientID)
	if err != nil {
		return nil, collaboratorError("get contractor", err)
	}
	if client == nil || client.Type != ContractorTypeCustomer || client.SellerID != resellerID {
		return nil, notFoundError(msgClientNotFound)
	}
	return client, nil
}

func (o *Operation) resolveEmployee(ctx context.Context, employeeID int64, role string) (*Employee, error) {
	employee, err := o.directory.Employee(ctx, employeeID)
	if err != nil {
		return nil, collaboratorError(fmt.Sprintf("get %s employee", role), err)
	}
	if employee == nil {
		return nil, notFoundError(msgEmployeeNotFound)
	}
	return employee, nil
}
