package pipeline

import (
	"fmt"
	"strings"

	"bostr/internal/rag/schema"
)

// DefaultUserName is used when no profile name is known for the caller.
const DefaultUserName = "användare"

// NoInfoAnswer is the fixed reply when retrieval finds nothing, personalised
// with the caller's name.
func NoInfoAnswer(userName string) string {
	return fmt.Sprintf("Jag hittar ingen information om det i de tillgängliga dokumenten, %s.", userName)
}

// BuildContext joins the retrieved chunks into the context block of the
// prompt.
func BuildContext(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		parts = append(parts, doc.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt assembles the Swedish instruction prompt around the retrieved
// context, the question and what is known about the user. income is nil when
// the user has no recorded monthly income.
func BuildPrompt(contextText, question, userName string, income *float64) string {
	if userName == "" {
		userName = DefaultUserName
	}
	incomeText := "okänd"
	if income != nil {
		incomeText = fmt.Sprintf("%.0f", *income)
	}

	return fmt.Sprintf(`Du är en hjälpsam AI-assistent som svarar på svenska. Använd informationen nedan för att svara på frågan.
Ditt namn är BOSTR-bot och du pratar med användaren %[1]s. Användarens inkomst är %[2]s.

Om användaren frågar efter fribeloppet kan du svara att fribeloppet för den här användaren är 10 gånger %[2]s.
Här är information som du kan använda:
%[3]s

Fråga från %[1]s: %[4]s

Om frågan gäller "fribelopp" men inget årtal anges, fråga användaren vilket år (t.ex. 2024 eller 2025) det gäller.
Svara annars koncist och direkt på svenska. Var vänlig och personlig i ditt svar genom att använda användarens namn (%[1]s) ibland.

Om informationen för att besvara frågan inte finns i texten ovan,
säg bara "Jag hittar ingen information om det i de tillgängliga dokumenten, %[1]s."

Avsluta gärna ditt svar på ett personligt sätt, t.ex. "Hoppas det hjälper dig, %[1]s!" om det passar i sammanhanget.`,
		userName, incomeText, contextText, question)
}
