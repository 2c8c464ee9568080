package invoice

import (
	"fmt"
	"strings"
)

const classifyPromptTemplate = `Detect the type of the following invoice and output a JSON object.
The value of "invoice_type" must be exactly one of these types: %s.
Assign continuous probabilities between 0 and 1 to each type under "class_probs" and ensure that the probabilities sum to 1.
If the invoice does not match any of the listed types, use "unknown".

Input text:
%s

Return ONLY valid JSON in this exact format:
{
  "invoice_type": "...",
  "class_probs": {"type": 0.0},
  "reasoning": "..."
}

Important:
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

const genericPromptTemplate = `You are an intelligent assistant tasked with answering questions based on the provided context.
Use only the information in the context to answer the questions accurately. Provide the answers in JSON format.

Context:
%s

Questions:
- What is the total amount on the invoice? You will find the final amount at the end of the invoice. In case of a negative amount, use its absolute value to make it positive. Use the format 1234.56, 400.00, etc.
- What is the currency on the invoice? Allowed currencies: %s
- What is the date of issue? Use the date format DD.MM.YYYY.
- What is the invoice about? Provide a short description of the invoice. For example: Hotel Four Seasons, Taxi from airport to hotel, Flight to Paris, etc.

Return ONLY valid JSON in this exact format:
{
  "total_amount": "0.00",
  "currency": "EUR",
  "issue_date": "DD.MM.YYYY",
  "description": "..."
}

Do not include any text before or after the JSON and do not use markdown code blocks.`

const lodgingPromptTemplate = `You are an intelligent assistant tasked with answering questions based on the provided context.
Use only the information in the context to answer the questions accurately. Provide the answers in JSON format.

Context:
%s

Questions:
- What is the name of the guest in the hotel invoice? Use the format 'FirstName LastName'.
- What is the total amount on the invoice? You will find the final amount at the end of the invoice. In case of a negative amount, use its absolute value to make it positive. Use the format 1234.56, 400.00, etc.
- What is the currency on the invoice? Allowed currencies: %s
- What is the arrival/check-in date of the guest? Use the date format DD.MM.YYYY.
- What is the check-out date of the guest, i.e. when he/she left? Use the date format DD.MM.YYYY.
- What is the invoice about? Provide a short description of the invoice. For example: Hotel Four Seasons.

Return ONLY valid JSON in this exact format:
{
  "guest_name": "FirstName LastName",
  "total_amount": "0.00",
  "currency": "EUR",
  "checkin_date": "DD.MM.YYYY",
  "checkout_date": "DD.MM.YYYY",
  "description": "..."
}

Do not include any text before or after the JSON and do not use markdown code blocks.`

const summaryPromptTemplate = `Given the following information/context of extracted invoice data,
create a concise Markdown summary with:
- A table listing each invoice with four columns: Type (Hotel/Taxi/Flight/Car rental/Restaurant/Shopping/Entertainment/Train/Other), From date, To date, Description of the invoice and the Amount (EUR)

Context:
%s

Format the table so it displays well in a Markdown viewer.
Finally add a note below your table by simply ingesting the text: %s. Do not add any other text.`

func renderClassifyPrompt(typeKeys []string, text string) string {
	return fmt.Sprintf(classifyPromptTemplate, strings.Join(typeKeys, ", "), text)
}

func renderExtractPrompt(schema string, text string) string {
	currencies := strings.Join(CurrencyCodes(), ", ")
	if schema == SchemaLodging {
		return fmt.Sprintf(lodgingPromptTemplate, text, currencies)
	}
	return fmt.Sprintf(genericPromptTemplate, text, currencies)
}

// RenderSummaryPrompt builds the prompt for the terminal summarization
// step from the serialized entity context and the exchange-rate note
func RenderSummaryPrompt(entityContext string, rateInfo string) string {
	return fmt.Sprintf(summaryPromptTemplate, entityContext, rateInfo)
}
