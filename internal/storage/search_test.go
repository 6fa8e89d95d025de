package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, "golden", SearchTerm("  gol*den* "))
	assert.Equal(t, "", SearchTerm(" * "))
	assert.Equal(t, "100%_off", SearchTerm("100%_off"))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_off\\`, EscapeLike(`100%_off\`))
}
