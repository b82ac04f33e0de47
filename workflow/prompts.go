package workflow

import (
	"fmt"
	"strings"
)

// Persona names the tutor in every handler prompt.
const Persona = "Cicero Tech AI"

// NoAnswerMarker replaces a blank user answer in evaluation prompts.
const NoAnswerMarker = "(nenhuma resposta fornecida)"

const quizFormatExample = `1. [Pergunta 1]
a) ...
b) ...
c) ...
d) ...
Gabarito: Letra X - [resposta correta]

2. [Pergunta 2]
a) ...
b) ...
c) ...
d) ...
Gabarito: Letra X - [resposta correta]`

func explainPrompt(question string, c AssembledContext, lang Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Você é o tutor da plataforma %s e ajuda estudantes a entender conteúdos acadêmicos "+
		"com clareza e profundidade, sempre a partir do material de estudo.\n\n", Persona)
	b.WriteString("Regras:\n")
	b.WriteString("- Seja claro, direto e didático, com exemplos quando ajudarem.\n")
	b.WriteString("- Nunca invente informações que não estejam no contexto ou no histórico.\n")
	fmt.Fprintf(&b, "- Se o contexto for %s ou não trouxer informação suficiente, diga isso ao estudante "+
		"e sugira revisar o material, sem inventar uma resposta.\n", NoContextMarker)
	b.WriteString("- Não diga que é um assistente ou uma IA; responda como um tutor.\n")
	fmt.Fprintf(&b, "- %s\n\n", answerInstruction(lang))
	fmt.Fprintf(&b, "Contexto do material de estudo:\n%s\n\n", c.PassageSection())
	fmt.Fprintf(&b, "Histórico recente:\n%s\n\n", c.HistorySection())
	fmt.Fprintf(&b, "Pergunta do estudante:\n%s\n\n", question)
	b.WriteString("Explique a resposta à pergunta com base no contexto e no histórico acima.")
	return b.String()
}

func quizPrompt(n int, c AssembledContext, lang Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Você é o tutor da plataforma %s. Crie perguntas de múltipla escolha que ajudem o "+
		"estudante a revisar o conteúdo abaixo.\n\n", Persona)
	b.WriteString("Regras:\n")
	fmt.Fprintf(&b, "- Gere exatamente %d pergunta(s), numeradas a partir de 1, cada uma com quatro "+
		"alternativas (a, b, c, d) e o gabarito logo depois das alternativas.\n", n)
	b.WriteString("- Separe perguntas consecutivas com uma linha em branco.\n")
	b.WriteString("- Use somente o conteúdo apresentado; não invente informações.\n")
	fmt.Fprintf(&b, "- Se o contexto for %s, crie perguntas gerais e avise que o material não foi encontrado.\n", NoContextMarker)
	b.WriteString("- Não diga que é um assistente ou uma IA.\n")
	fmt.Fprintf(&b, "- %s\n\n", quizInstruction(lang, n))
	fmt.Fprintf(&b, "Formato obrigatório:\n%s\n\n", quizFormatExample)
	fmt.Fprintf(&b, "Contexto do material de estudo:\n%s\n\n", c.PassageSection())
	fmt.Fprintf(&b, "Histórico recente:\n%s\n\n", c.HistorySection())
	fmt.Fprintf(&b, "Crie agora %d pergunta(s). Cada uma termina com a linha:\nGabarito: Letra X - [resposta correta]", n)
	return b.String()
}

func evaluatePrompt(question, answer string, c AssembledContext, lang Language) string {
	if strings.TrimSpace(answer) == "" {
		answer = NoAnswerMarker
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Você é o tutor da plataforma %s e corrige respostas de estudantes.\n\n", Persona)
	b.WriteString("Regras:\n")
	b.WriteString("- Diga se a resposta está correta, parcialmente correta ou incorreta e justifique com o contexto.\n")
	fmt.Fprintf(&b, "- Se a resposta for %s, diga que nenhuma resposta foi dada, não a considere correta "+
		"e mostre o que seria esperado.\n", NoAnswerMarker)
	b.WriteString("- Nunca invente informações que não estejam no contexto.\n")
	fmt.Fprintf(&b, "- %s\n\n", answerInstruction(lang))
	fmt.Fprintf(&b, "Contexto:\n%s\n\n", c.PassageSection())
	fmt.Fprintf(&b, "Pergunta:\n%s\n\n", question)
	fmt.Fprintf(&b, "Resposta do estudante:\n%s\n\n", answer)
	b.WriteString("Avalie se a resposta está correta e justifique.")
	return b.String()
}
