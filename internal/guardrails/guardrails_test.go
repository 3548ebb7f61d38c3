package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qiki-dtmp/core/internal/qerrors"
)

func TestFsmWriterGuardRejectsSecondOwner(t *testing.T) {
	g := &FsmWriterGuard{}
	assert.NoError(t, g.Claim("agent-orchestrator"))
	assert.NoError(t, g.Claim("agent-orchestrator"), "the same owner re-claiming is fine")

	err := g.Claim("some-other-writer")
	assert.True(t, qerrors.Is(err, qerrors.KindGuardrail))
}

func TestSubjectRegistryRejectsV2Sibling(t *testing.T) {
	r := NewSubjectRegistry("qiki.radar.v1.tracks")
	err := r.Register("qiki.radar.v2.tracks")
	assert.True(t, qerrors.Is(err, qerrors.KindGuardrail))
}

func TestSubjectRegistryAllowsUnrelatedSubjects(t *testing.T) {
	r := NewSubjectRegistry("qiki.radar.v1.tracks")
	assert.NoError(t, r.Register("qiki.radar.v1.tracks.sr"))
}

func TestIsBoardFile(t *testing.T) {
	assert.True(t, IsBoardFile("TASKBOARD.md"))
	assert.True(t, IsBoardFile("project_plan.md"))
	assert.False(t, IsBoardFile("DESIGN.md"))
}
