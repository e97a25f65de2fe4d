package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultGoalName selects the default goal. An empty goal list means the same.
const DefaultGoalName = "all"

// GoalKind distinguishes canonical goal families.
type GoalKind int

const (
	// GoalDefault is the default goal.
	GoalDefault GoalKind = iota
	// GoalStage is build-stage-N-for-host(H).
	GoalStage
	// GoalToolchain is build-toolchain-for-host(H).
	GoalToolchain
	// GoalVerify is verify-toolchain-for-host(H).
	GoalVerify
)

// GoalRequest is a parsed canonical goal name.
type GoalRequest struct {
	Kind  GoalKind
	Stage Stage
	Host  Triple
}

var goalPattern = regexp.MustCompile(`^(build-stage-(\d+)|build-toolchain|verify-toolchain)-for-host\((.+)\)$`)

// ParseGoal parses a canonical goal name. It returns false for names it does not know,
// which may still be claimed by a module.
func ParseGoal(name string) (GoalRequest, bool) {
	if name == DefaultGoalName || name == "" {
		return GoalRequest{Kind: GoalDefault}, true
	}

	m := goalPattern.FindStringSubmatch(name)
	if m == nil {
		return GoalRequest{}, false
	}

	host := Triple(m[3])
	switch {
	case m[2] != "":
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return GoalRequest{}, false
		}
		return GoalRequest{Kind: GoalStage, Stage: Stage(n), Host: host}, true
	case m[1] == "build-toolchain":
		return GoalRequest{Kind: GoalToolchain, Stage: 2, Host: host}, true
	default:
		return GoalRequest{Kind: GoalVerify, Stage: MaxStage, Host: host}, true
	}
}

// StageGoalName formats build-stage-N-for-host(H).
func StageGoalName(stage Stage, host Triple) string {
	return fmt.Sprintf("build-stage-%d-for-host(%s)", int(stage), host)
}

// ToolchainGoalName formats build-toolchain-for-host(H).
func ToolchainGoalName(host Triple) string {
	return fmt.Sprintf("build-toolchain-for-host(%s)", host)
}

// VerifyGoalName formats verify-toolchain-for-host(H).
func VerifyGoalName(host Triple) string {
	return fmt.Sprintf("verify-toolchain-for-host(%s)", host)
}

// GoalPlan is what a goal resolves to before it is mapped onto actions.
type GoalPlan struct {
	Name    string
	Prereqs PrerequisiteSet
	// Notices are surfaced to the invoker, e.g. in-transition truncation.
	Notices []string
	// Verify requests a stage 2 versus stage 3 comparison for Host.
	Verify bool
	Host   Triple
	// Actions are goal roots contributed by modules rather than derived from Prereqs.
	Actions []string
}
