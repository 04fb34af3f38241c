package article

import "fmt"

// Prompt is the instruction pair sent to a provider.
type Prompt struct {
	System string
	User   string
}

const systemPrompt = "You write entries for a fictional encyclopedia in the style of Wikipedia. " +
	"Answer only with a JSON object that matches the provided schema. Write plain prose without HTML."

// BuildPrompt returns the instruction asking for a long-form article about topic.
func BuildPrompt(topic string) Prompt {
	return Prompt{
		System: systemPrompt,
		User: fmt.Sprintf("Create a long-form Wikipedia style article about: %s. "+
			"Include an info card with relevant categories and their corresponding values, one value per category. "+
			"Create many different sections, each with a header and detailed content. "+
			"Also provide an array of potential hyperlinks: important keywords or phrases from the article "+
			"that could be linked to other encyclopedia articles.", topic),
	}
}
