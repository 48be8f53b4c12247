package transfer

import (
	"encoding/json"
	"fmt"
	"strings"
)

const schemaURL = "https://litmus-testmanager.dev/schema/v1/testplan.json"

type templateTest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Command        string `json:"command"`
	ExpectedResult string `json:"expectedResult"`
	PrepSteps      string `json:"prepSteps"`
	Priority       string `json:"priority"`
}

type templateCategory struct {
	Name  string         `json:"name"`
	Tests []templateTest `json:"tests"`
}

type templateDocs struct {
	Description string   `json:"description"`
	Usage       []string `json:"usage"`
	AIPrompt    string   `json:"aiPrompt"`
}

type templateDoc struct {
	Schema        string             `json:"_schema"`
	Documentation templateDocs       `json:"_documentation"`
	Project       ProjectDoc         `json:"project"`
	Categories    []templateCategory `json:"categories"`
}

// Template returns an annotated test plan skeleton. With includeExamples the
// categories carry placeholder text showing what each field is for.
func Template(includeExamples bool) string {
	doc := templateDoc{
		Schema: schemaURL,
		Documentation: templateDocs{
			Description: "Litmus test plan template. Fill it in and import it with `litmus import`.",
			Usage: []string{
				"Set the project name and description",
				"Add categories to group related tests",
				"Add tests to each category",
				"Save as .json and import it",
			},
			AIPrompt: "Give this template to an AI assistant with: 'Generate a comprehensive test plan for [your application] in this JSON format. Cover [features].'",
		},
		Project: ProjectDoc{
			Name:        "[PROJECT_NAME]",
			Description: "[Optional description of the application under test]",
		},
		Categories: blankCategories(),
	}
	if includeExamples {
		doc.Categories = exampleCategories()
	}
	return mustIndent(doc)
}

// MinimalTemplate returns the bare structure with empty values
func MinimalTemplate() string {
	doc := struct {
		Project struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"project"`
		Categories []templateCategory `json:"categories"`
	}{Categories: blankCategories()}
	return mustIndent(doc)
}

func blankCategories() []templateCategory {
	return []templateCategory{{Tests: []templateTest{{Priority: "medium"}}}}
}

func exampleCategories() []templateCategory {
	return []templateCategory{
		{
			Name: "[CATEGORY_1 e.g. Authentication]",
			Tests: []templateTest{
				{
					Name:           "[Test name e.g. Valid login]",
					Description:    "[What the test verifies e.g. users can sign in with valid credentials]",
					Command:        "[Steps e.g. 1. Open /login 2. Enter username 3. Enter password 4. Submit]",
					ExpectedResult: "[Expected outcome e.g. the dashboard opens with a welcome message]",
					PrepSteps:      "[Optional setup e.g. test account test@example.com exists]",
					Priority:       "critical",
				},
				{
					Name:           "[Another test]",
					Description:    "[Description]",
					Command:        "[Steps]",
					ExpectedResult: "[Expected outcome]",
					Priority:       "high",
				},
			},
		},
		{
			Name: "[CATEGORY_2 e.g. User Management]",
			Tests: []templateTest{
				{
					Name:           "[Test name]",
					Description:    "[Description]",
					Command:        "[Steps]",
					ExpectedResult: "[Expected outcome]",
					Priority:       "medium",
				},
			},
		},
	}
}

func mustIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal template: %v", err))
	}
	return string(b)
}

const promptTemplate = `# Test Plan Generation Request

Generate a comprehensive manual test plan for **%s**.

## Focus Areas
%s

## Output Format
Return valid JSON with exactly this structure:

` + "```json" + `
%s
` + "```" + `

## Priority Guidelines
- **critical**: core functionality that must work (login, checkout, data integrity)
- **high**: features that significantly affect the user experience
- **medium**: standard functionality
- **low**: edge cases and cosmetic issues

## Coverage
1. Positive (happy path) tests
2. Negative tests for error handling and validation
3. Boundary tests where they apply
4. Security tests for sensitive operations
5. Tests grouped by feature area or workflow

## Notes
- Write commands as concrete steps a tester can follow
- Expected results must be specific and verifiable
- Put required test data or accounts in prepSteps
`

// AIPrompt returns a prompt asking an assistant to produce an importable plan
func AIPrompt(appName, features string) string {
	if strings.TrimSpace(appName) == "" {
		appName = "[YOUR_APP_NAME]"
	}
	if strings.TrimSpace(features) == "" {
		features = "[FEATURES_TO_TEST]"
	}
	shape := templateDoc{
		Project: ProjectDoc{Name: "[Project name]", Description: "[What the application does]"},
		Categories: []templateCategory{{
			Name: "[Category e.g. Authentication, Dashboard, API]",
			Tests: []templateTest{{
				Name:           "[Short name of what is tested]",
				Description:    "[The scenario in detail]",
				Command:        "[Step-by-step instructions]",
				ExpectedResult: "[What happens when the test passes]",
				PrepSteps:      "[Optional setup]",
				Priority:       "[critical|high|medium|low]",
			}},
		}},
	}
	b, _ := json.MarshalIndent(struct {
		Project    ProjectDoc         `json:"project"`
		Categories []templateCategory `json:"categories"`
	}{shape.Project, shape.Categories}, "", "  ")
	return fmt.Sprintf(promptTemplate, appName, features, b)
}
