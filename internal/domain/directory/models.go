package directory

// Employee is the stored document. Rev is store-managed revision metadata
// used for optimistic concurrency and is never part of the public view.
type Employee struct {
	ID           string `json:"id" bson:"_id"`
	Rev          int64  `json:"-" bson:"_rev"`
	EmployeeName string `json:"employeeName" bson:"employeeName"`
	PhoneNumber  string `json:"phoneNumber" bson:"phoneNumber"`
	Email        string `json:"email" bson:"email"`
	ReportsTo    string `json:"reportsTo" bson:"reportsTo"`
	ProfileImage string `json:"profileImage" bson:"profileImage"`
}

type EmployeeRequest struct {
	EmployeeName string `json:"employeeName"`
	PhoneNumber  string `json:"phoneNumber"`
	Email        string `json:"email"`
	ReportsTo    string `json:"reportsTo"`
	ProfileImage string `json:"profileImage"`
}

type EmployeeView struct {
	ID           string `json:"id"`
	EmployeeName string `json:"employeeName"`
	PhoneNumber  string `json:"phoneNumber"`
	Email        string `json:"email"`
	ReportsTo    string `json:"reportsTo"`
	ProfileImage string `json:"profileImage"`
}

type Page struct {
	Items                    []EmployeeView `json:"items"`
	Page                     int            `json:"page"`
	Size                     int            `json:"size"`
	ApproximateTotalElements int            `json:"approximateTotalElements"`
	ApproximateTotalPages    int            `json:"approximateTotalPages"`
}

func (e Employee) View() EmployeeView {
	return EmployeeView{
		ID:           e.ID,
		EmployeeName: e.EmployeeName,
		PhoneNumber:  e.PhoneNumber,
		Email:        e.Email,
		ReportsTo:    e.ReportsTo,
		ProfileImage: e.ProfileImage,
	}
}

func views(employees []Employee) []EmployeeView {
	out := make([]EmployeeView, 0, len(employees))
	for _, emp := range employees {
		out = append(out, emp.View())
	}
	return out
}

// apply replaces every mutable field with the request's values.
func (e *Employee) apply(req EmployeeRequest) {
	e.EmployeeName = req.EmployeeName
	e.PhoneNumber = req.PhoneNumber
	e.Email = req.Email
	e.ReportsTo = req.ReportsTo
	e.ProfileImage = req.ProfileImage
}
