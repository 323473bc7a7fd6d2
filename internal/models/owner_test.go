package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwner_Validate(t *testing.T) {
	valid := func() Owner {
		return Owner{
			Username:  "carlos",
			Email:     "carlos@email.com",
			FirstName: "Carlos",
			LastName:  "Alberto",
			Role:      RoleOwner,
		}
	}

	tests := []struct {
		name   string
		mutate func(o *Owner)
		errMsg string
	}{
		{name: "valid owner", mutate: func(o *Owner) {}},
		{name: "valid admin", mutate: func(o *Owner) { o.Role = RoleAdmin }},
		{name: "missing username", mutate: func(o *Owner) { o.Username = "" }, errMsg: "username is required"},
		{name: "username with spaces", mutate: func(o *Owner) { o.Username = "carlos alberto" }, errMsg: "invalid username format"},
		{name: "missing email", mutate: func(o *Owner) { o.Email = "" }, errMsg: "email is required"},
		{name: "invalid email", mutate: func(o *Owner) { o.Email = "carlos" }, errMsg: "invalid email format"},
		{name: "missing first name", mutate: func(o *Owner) { o.FirstName = " " }, errMsg: "first name is required"},
		{name: "missing last name", mutate: func(o *Owner) { o.LastName = "" }, errMsg: "last name is required"},
		{name: "unknown role", mutate: func(o *Owner) { o.Role = "superuser" }, errMsg: "invalid role: superuser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid()
			tt.mutate(&o)
			err := o.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.errMsg)
		})
	}
}

func TestOwner_Helpers(t *testing.T) {
	o := &Owner{FirstName: "Carlos", LastName: "Alberto", Role: RoleAdmin}

	assert.Equal(t, "Carlos Alberto", o.FullName())
	assert.True(t, o.IsAdmin())
	assert.Equal(t, "owners", o.TableName())
	assert.True(t, IsValidEmail("carlos@email.com"))
	assert.False(t, IsValidEmail("carlos@"))
}
