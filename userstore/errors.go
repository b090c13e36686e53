package userstore

import "fmt"

type (
	NotFound struct {
		ID string
	}

	Duplicate struct {
		ID string
	}
)

func (n NotFound) Error() string {
	return fmt.Sprintf("user %v not found", n.ID)
}

func (d Duplicate) Error() string {
	return fmt.Sprintf("user %v already exists", d.ID)
}
