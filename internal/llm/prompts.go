package llm

import (
	"fmt"
	"strings"

	"lingoblitz/internal/config"
)

// Sampling temperatures per use.
const (
	articleTemperature    = 0.6
	translateTemperature  = 0.3
	quizTemperature       = 0.5
	evaluationTemperature = 0.4
	proposalTemperature   = 0.8
	translateMaxTokens    = 50
)

type prompt struct {
	system string
	user   string
}

func articlePrompt(topic string, s config.Settings) prompt {
	return prompt{
		system: fmt.Sprintf("You are a helpful language tutor. Write an article about %q for a student with %s level in %s.",
			topic, s.Level, s.LearningLanguage),
		user: fmt.Sprintf(`REQUIREMENTS:
- Target level: %s
- Level description: %s
- Target word count: Approximately %d words (Strictly adhere to this limit)
- Format: Title on first line, then newline, then article body
- Structure the article with clear paragraphs separated by double newlines
- No markdown formatting
- IMPORTANT: For Absolute Beginner, use extremely short sentences and basic vocabulary only.

Write the article now.`, s.Level, s.Level.Description(), s.Level.WordCount()),
	}
}

func translatePrompt(word string, from, to config.Language) prompt {
	return prompt{
		system: "You are a precise translator. Provide only the most common translations of the provided word. " +
			"If the word has more than one meaning, list them separated by comma. Provide no further explanations or articles. " +
			"Do not capitalize the first letter unless it is grammatically required in the target language (e.g. nouns in German).",
		user: fmt.Sprintf("Translate %q from %s to %s", word, from, to),
	}
}

func proposalPrompt(req ProposalRequest) prompt {
	return prompt{
		system: fmt.Sprintf(`You are a creative language tutor. Generate %d interesting, specific, and engaging conversation topics for a student learning %s at %s level.
The topics should be related to these interests: %s.
Do NOT suggest these topics: %s.

IMPORTANT FORMATTING RULES:
- Provide ONLY the topics, separated by a pipe character (|).
- Each topic must be an engaging, descriptive title (2-6 words) (e.g., "The Future of Artificial Intelligence", "Sustainable Travel Tips", "My Grandmother's Secret Recipe").
- DO NOT use questions, commands, or sentences (e.g., NO "Describe your day", NO "What is your hobby?").
- No numbering, no extra text.`,
			req.Count, req.Language, req.Level, strings.Join(req.Interests, ", "), strings.Join(req.Excluded, ", ")),
		user: fmt.Sprintf("Generate %d topics now.", req.Count),
	}
}

// parseProposals splits a pipe-separated answer into at most count topics.
func parseProposals(content string, count int) []string {
	var out []string
	for _, t := range strings.Split(content, "|") {
		t = strings.Trim(strings.TrimSpace(t), `"`)
		if t != "" {
			out = append(out, t)
		}
	}
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out
}

func quizPrompt(req QuizRequest) prompt {
	return prompt{
		system: "You are a language teacher creating comprehension questions. Generate questions that test understanding of the article content.",
		user: fmt.Sprintf(`Based on this article, generate ONE open-ended comprehension question in %[1]s.

Article:
%[2]s

REQUIREMENTS:
1. Question must be in %[1]s
2. Appropriate for %[3]s level (%[4]s)
3. Should test understanding of the main content
4. Should require a sentence or two to answer
5. Avoid yes/no questions

Return ONLY the question text, no additional formatting.`, req.Language, req.Article, req.Level, req.Level.Description()),
	}
}

func evaluationPrompt(req EvaluationRequest) prompt {
	return prompt{
		system: "You are a friendly language tutor providing quiz feedback. Evaluate both content accuracy and language quality. Be encouraging and constructive.",
		user: fmt.Sprintf(`Evaluate this %[1]s level %[2]s learner's quiz answer.

Article: %[3]s
Question: %[4]q
Answer: %[5]q

Provide feedback in %[2]s. Do NOT use a numbered list in your response. Instead, write a cohesive response covering:
- Correct/Partially correct/Incorrect
- Brief language feedback
- Gentle corrections if needed

Keep it 2-4 sentences. Use markdown emphasis for key points.

Level guidance: %[6]s`, req.Level, req.Language, req.Article, req.Question, req.Answer, req.Level.Description()),
	}
}
