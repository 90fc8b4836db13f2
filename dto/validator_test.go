package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminLoginRequestValidate(t *testing.T) {
	assert.NoError(t, AdminLoginRequest{Password: "correct horse battery staple"}.Validate())
	assert.Error(t, AdminLoginRequest{}.Validate())
	assert.Error(t, AdminLoginRequest{Password: strings.Repeat("a", 4097)}.Validate())
	assert.NoError(t, AdminLoginRequest{Password: strings.Repeat("a", 4096)}.Validate())
}
