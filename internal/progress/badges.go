package progress

import "fmt"

// BadgeCode identifies an achievement. Grants are idempotent and permanent.
type BadgeCode string

const (
	BadgeModule1Complete BadgeCode = "MODULE_1_COMPLETE"
	BadgeModule2Complete BadgeCode = "MODULE_2_COMPLETE"
	BadgeModule3Complete BadgeCode = "MODULE_3_COMPLETE"
	BadgeModule4Complete BadgeCode = "MODULE_4_COMPLETE"
	BadgeModule5Complete BadgeCode = "MODULE_5_COMPLETE"
	BadgeModule6Complete BadgeCode = "MODULE_6_COMPLETE"

	BadgeCourseComplete BadgeCode = "COURSE_COMPLETE"

	// Defined but not granted by any rule yet.
	BadgeRAGBuilder         BadgeCode = "RAG_BUILDER"
	BadgeAgentArchitect     BadgeCode = "AGENT_ARCHITECT"
	BadgeAutomationEngineer BadgeCode = "AUTOMATION_ENGINEER"
	BadgeQAGuardian         BadgeCode = "QA_GUARDIAN"
)

// ModuleBadge returns the completion badge for a module order index.
func ModuleBadge(moduleOrderIndex int) BadgeCode {
	return BadgeCode(fmt.Sprintf("MODULE_%d_COMPLETE", moduleOrderIndex))
}

// badgeRules maps a module-closing lesson order index to the badge its pass
// grants. Built once from the immutable catalog when the engine is
// constructed; consulted on every attempt.
type badgeRules map[int]BadgeCode

func newBadgeRules(terminals map[int]int) badgeRules {
	rules := make(badgeRules, len(terminals))
	for lessonOrder, moduleOrder := range terminals {
		rules[lessonOrder] = ModuleBadge(moduleOrder)
	}
	return rules
}
