package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/examforge/examforge/internal/model"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleFree, ParseRole("free"))
	assert.Equal(t, RolePremium, ParseRole("Premium"))
	assert.Equal(t, RoleAdmin, ParseRole(" admin "))

	// Unknown and empty roles fall back to free
	assert.Equal(t, RoleFree, ParseRole(""))
	assert.Equal(t, RoleFree, ParseRole("superuser"))
}

func TestCapFor(t *testing.T) {
	p := New(DefaultFreeCaps(), DefaultPremiumCaps())

	assert.Equal(t, 20, p.CapFor(RoleFree, model.SectionQuantitative))
	assert.Equal(t, 5, p.CapFor(RoleFree, model.SectionReading))
	assert.Equal(t, 100, p.CapFor(RolePremium, model.SectionSynonym))
	assert.Equal(t, 25, p.CapFor(RolePremium, model.SectionWriting))
}

func TestCapForAdminIsUnlimited(t *testing.T) {
	p := New(DefaultFreeCaps(), DefaultPremiumCaps())

	for _, section := range model.AllSections {
		assert.Equal(t, Unlimited, p.CapFor(RoleAdmin, section))
	}
}

func TestCapForUnknownSectionIsZero(t *testing.T) {
	p := New(Caps{model.SectionSynonym: 10}, Caps{})

	assert.Equal(t, 0, p.CapFor(RoleFree, model.SectionWriting))
}
