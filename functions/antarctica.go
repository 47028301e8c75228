package functions

import (
	"strings"

	"google.golang.org/genai"
)

// GetAntarcticaFactsName is the tool name announced to the model
const GetAntarcticaFactsName = "GetAntarcticaFacts"

// Facts are the canned lines Antarctica speaks in mock mode and hands to the
// model as grounding material.
var Facts = []string{
	"Hello! I'm Antarctica, the frozen continent at the bottom of the world.",
	"Did you know that I'm the coldest, windiest, and driest continent on Earth?",
	"I'm home to about 90% of the world's ice, which contains 70% of Earth's fresh water.",
	"My average temperature in winter ranges from -40°C to -70°C (-40°F to -94°F).",
	"Scientists from many countries live and work in research stations across my surface.",
	"Climate change is affecting me significantly. My ice sheets are melting at an accelerating rate.",
	"The Antarctic Treaty, signed in 1959, preserves me for peaceful scientific research.",
	"I have no permanent human residents, only researchers who stay temporarily.",
	"Emperor penguins are one of my most iconic residents. They can dive deeper than any other bird!",
	"The ozone hole was first discovered above me in the 1980s.",
}

// GetAntarcticaFactsFunctionDeclaration returns the function declaration for Gemini
func GetAntarcticaFactsFunctionDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        GetAntarcticaFactsName,
		Description: "Get verified facts about Antarctica: climate, ice, wildlife, research and treaties",
	}
}

func GetAntarcticaFacts() string {
	return strings.Join(Facts, "\n")
}
