// Package storeaudit implements the store-audit questionnaire workflow:
// conditional question catalog, per-question photo evidence, AI analysis, and
// append-only persistence.
package storeaudit

// QuestionType distinguishes choice questions from free-text follow-ups.
type QuestionType string

const (
	TypeSelect QuestionType = "select"
	TypeText   QuestionType = "text"
)

// Dependency makes a question visible only when another question has a
// specific answer.
type Dependency struct {
	QuestionID string
	Value      string
}

// Question is one catalog entry.
type Question struct {
	ID       string
	Category string
	Text     string
	Type     QuestionType
	// Options are the allowed answers for select questions.
	Options []string
	// DependsOn hides the question until the referenced answer matches.
	DependsOn *Dependency
	// PhotoRequiredIf lists the answers that make a photo mandatory.
	PhotoRequiredIf []string
}

// Visible reports whether the question applies given the current answers.
func (q Question) Visible(answers map[string]string) bool {
	if q.DependsOn == nil {
		return true
	}
	return answers[q.DependsOn.QuestionID] == q.DependsOn.Value
}

// PhotoRequired reports whether the given answer makes a photo mandatory.
func (q Question) PhotoRequired(answer string) bool {
	for _, v := range q.PhotoRequiredIf {
		if v == answer {
			return true
		}
	}
	return false
}

// Catalog is the deposit-section questionnaire.
var Catalog = []Question{
	{
		ID: "dep_01", Category: "Depósito",
		Text:            "¿Están delimitados todos los pasillos del depósito con cinta amarilla?",
		Type:            TypeSelect,
		Options:         []string{"Sí", "No"},
		PhotoRequiredIf: []string{"No"},
	},
	{
		ID: "dep_02", Category: "Depósito",
		Text:            "¿Los pasillos permiten la fácil circulación?",
		Type:            TypeSelect,
		Options:         []string{"Sí", "No"},
		PhotoRequiredIf: []string{"No"},
	},
	{
		ID: "dep_02_why", Category: "Depósito",
		Text:      "¿Por qué los pasillos no permiten la fácil circulación?",
		Type:      TypeText,
		DependsOn: &Dependency{QuestionID: "dep_02", Value: "No"},
	},
	{
		ID: "dep_03", Category: "Depósito",
		Text:            "El depósito, ¿cuenta con escaleras?",
		Type:            TypeSelect,
		Options:         []string{"Sí", "No"},
		PhotoRequiredIf: []string{"No"},
	},
	{
		ID: "dep_03_mark", Category: "Depósito",
		Text:            "¿Están señalizados con cinta amarilla el primer y último escalón?",
		Type:            TypeSelect,
		Options:         []string{"Sí", "No"},
		DependsOn:       &Dependency{QuestionID: "dep_03", Value: "Sí"},
		PhotoRequiredIf: []string{"No"},
	},
	{
		ID: "dep_03_obs", Category: "Depósito",
		Text:            "¿Las escaleras se encuentran libres de productos y/o cosas que generan obstáculos?",
		Type:            TypeSelect,
		Options:         []string{"Sí", "No"},
		DependsOn:       &Dependency{QuestionID: "dep_03", Value: "Sí"},
		PhotoRequiredIf: []string{"No"},
	},
	{
		ID: "dep_03_obs_detail", Category: "Depósito",
		Text:      "¿Qué obstáculos hay en las escaleras?",
		Type:      TypeText,
		DependsOn: &Dependency{QuestionID: "dep_03_obs", Value: "No"},
	},
	{
		ID: "dep_04", Category: "Depósito",
		Text:            "¿Está el cartel de salida del depósito colocado?",
		Type:            TypeSelect,
		Options:         []string{"Sí", "No"},
		PhotoRequiredIf: []string{"No"},
	},
	{
		ID: "dep_04_where", Category: "Depósito",
		Text:      "¿Dónde está colocado el cartel?",
		Type:      TypeText,
		DependsOn: &Dependency{QuestionID: "dep_04", Value: "Sí"},
	},
	{
		ID: "dep_04_why_not", Category: "Depósito",
		Text:      "¿Por qué no está colocado el cartel de salida del depósito?",
		Type:      TypeText,
		DependsOn: &Dependency{QuestionID: "dep_04", Value: "No"},
	},
	{
		ID: "dep_05", Category: "Depósito",
		Text:            "¿El espacio físico del depósito es acorde a la cantidad de productos?",
		Type:            TypeSelect,
		Options:         []string{"Sí", "No"},
		PhotoRequiredIf: []string{"No"},
	},
	{
		ID: "dep_05_why", Category: "Depósito",
		Text:      "¿Por qué no es acorde el espacio físico del depósito?",
		Type:      TypeText,
		DependsOn: &Dependency{QuestionID: "dep_05", Value: "No"},
	},
	{
		ID: "dep_06", Category: "Depósito",
		Text:            "Estado de limpieza del depósito",
		Type:            TypeSelect,
		Options:         []string{"Buena", "Regular", "Mala"},
		PhotoRequiredIf: []string{"Regular", "Mala"},
	},
}

// VisibleQuestions filters the catalog to the questions that apply under the
// current answers, in catalog order.
func VisibleQuestions(answers map[string]string) []Question {
	var out []Question
	for _, q := range Catalog {
		if q.Visible(answers) {
			out = append(out, q)
		}
	}
	return out
}
