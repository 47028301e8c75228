package functions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAntarcticaFacts(t *testing.T) {
	facts := GetAntarcticaFacts()
	for _, fact := range Facts {
		assert.Contains(t, facts, fact)
	}
	assert.Equal(t, len(Facts)-1, strings.Count(facts, "\n"))
}

func TestFunctionDeclaration(t *testing.T) {
	decl := GetAntarcticaFactsFunctionDeclaration()
	assert.Equal(t, GetAntarcticaFactsName, decl.Name)
	assert.NotEmpty(t, decl.Description)
}
