package shared_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kantine/kantine-web/internal/shared"
)

func TestValidationMessages(t *testing.T) {
	type form struct {
		Username string `form:"username" validate:"required,max=50"`
		Password string `form:"password" validate:"min=8"`
		Group    string `form:"user_group" validate:"oneof=verwaltung gruppenleitung"`
	}
	err := shared.NewValidator().Struct(form{Password: "kurz", Group: "koch"})
	msgs := shared.ValidationMessages(err)
	assert.Equal(t, map[string]string{
		"username":   "Bitte ausfüllen",
		"password":   "Mindestens 8 Zeichen",
		"user_group": "Ungültige Auswahl",
	}, msgs)

	assert.Nil(t, shared.ValidationMessages(nil))
	assert.Equal(t, "Eingaben ungültig", shared.ValidationMessages(errors.New("x"))["general"])
}
