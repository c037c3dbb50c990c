package models_test

import (
	"fmt"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

func ExampleRequestStatus_CanTransitionTo() {
	fmt.Println(models.RequestStatusPending.CanTransitionTo(models.RequestStatusAccepted))
	fmt.Println(models.RequestStatusPending.CanTransitionTo(models.RequestStatusCompleted))
	fmt.Println(models.RequestStatusCompleted.CanTransitionTo(models.RequestStatusPending))

	// Output:
	// true
	// false
	// false
}

func ExampleUserPatch_Apply() {
	usr := models.User{
		Name: "Asha",
		Role: models.RoleDonor,
	}

	role := models.RoleSeeker
	patch := models.UserPatch{Role: &role}
	patch.Apply(&usr)

	fmt.Println(usr.Name, usr.Role)

	// Output:
	// Asha seeker
}
