package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionVisibility(t *testing.T) {
	open := &Question{Text: "How did the quarter go?"}
	managerOnly := &Question{Text: "Promotion readiness?", VisibleTo: []string{"MANAGER", "HR"}}

	assert.True(t, open.VisibleToRole("EMPLOYEE"), "no filter means visible to everyone")
	assert.True(t, open.VisibleToRole(""), "even an empty role sees unfiltered questions")

	assert.True(t, managerOnly.VisibleToRole("MANAGER"))
	assert.True(t, managerOnly.VisibleToRole("HR"))
	assert.False(t, managerOnly.VisibleToRole("EMPLOYEE"))
}
