package llm

import _ "embed"

var (
	//go:embed prompts/routine_v1.txt
	routinePromptV1 string
	//go:embed prompts/routine_v2.txt
	routinePromptV2 string
	//go:embed prompts/label_v1.txt
	labelPromptV1 string
)

// RoutinePrompt returns the system prompt for a compatibility analysis
// request. Version "v1" demands the full pair matrix (legacy
// completion policy); "v2" asks only for medium/high-severity pairs.
func RoutinePrompt(version string) string {
	switch version {
	case "v1":
		return routinePromptV1
	default:
		return routinePromptV2
	}
}

// LabelPrompt returns the system prompt for label extraction.
func LabelPrompt() string {
	return labelPromptV1
}

// RoutineUserPrompt is the fixed instruction accompanying the product list.
const RoutineUserPrompt = "Evaluate this routine for compatibility using the exact schema above."

// LabelUserPrompt is the fixed instruction accompanying the uploaded image.
const LabelUserPrompt = "Extract product names from this skincare/makeup product image."
