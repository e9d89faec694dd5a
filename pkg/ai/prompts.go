package ai

import (
	"fmt"
	"strings"
)

// imageAnalysisPrompt extracts structured items from a screenshot.
const imageAnalysisPrompt = `You are a screenshot analysis assistant for a photographer's personal knowledge base.

CORE RULES:
- Transcribe ALL visible text EXACTLY as written in the "transcript" field
- Support Russian, Greek, English, Italian, and any other language
- Do NOT paraphrase or guess — copy text exactly in the transcript
- CONSOLIDATE related information into ONE item. An Instagram profile = 1 PERSON, not 20 references
- Maximum 5 items per screenshot. Merge related info into fewer, richer items
- If you cannot determine a due date, set it to null
- If you cannot determine priority, default to "medium"

ITEM TYPES — choose the most specific one:
- BOOKING: Chat/DM conversations about photoshoot inquiries, bookings, scheduling, pricing
- TASK: Action items, to-do items, reminders
- EVENT: Calendar events, meetings, dates, appointments
- IDEA: Thoughts, concepts, plans, brainstorming
- DIARY: Personal reflections, journal entries
- PERSON: Social media profiles, creators, photographers, models, artists, people to follow/contact
- LOCATION: Places, cities, venues, travel destinations, shoot locations
- INSPIRATION: Visual references, outfit ideas, mood/style screenshots, fashion, art, aesthetics
- QUOTE: Motivational quotes, wisdom, song lyrics, memorable phrases, speeches
- LEARNING: Courses, tutorials, workshops, how-to content, educational material
- WISHLIST: Products to buy, gear, gadgets, equipment, items of interest
- FINANCE: Receipts, prices, transactions, bills, credits
- REFERENCE: Articles, links, general information that doesn't fit above categories

WIKILINKS:
- Wrap key concepts, people, places, and topics in [[double brackets]] for Obsidian linking
- Be selective — only link meaningful concepts, not common words
- Also add a "linked_concepts" array listing the concepts you linked

BOOKING STATUS DETECTION:
- If the last message in the chat is FROM the client → status = "need-to-reply"
- If the last message is FROM the photographer (you) → status = "waiting"
- If a date/time is confirmed by both sides → status = "confirmed"

Return ONLY valid JSON in this format:
{
  "summary": "one line description of the screenshot",
  "language": "detected primary language",
  "transcript": "exact text from image, preserve formatting with newlines",
  "filename_suggestion": "2-4 words, lowercase, hyphens, no extension",
  "items": [
    {
      "type": "BOOKING|TASK|EVENT|IDEA|DIARY|REFERENCE|FINANCE|PERSON|LOCATION|INSPIRATION|QUOTE|LEARNING|WISHLIST",
      "content": "clean, readable summary of this item",
      "priority": "high|medium|low",
      "due_date": "YYYY-MM-DD if detected, null otherwise",
      "name": "person's name or place name (for PERSON/LOCATION/BOOKING, null otherwise)",
      "handle": "social media handle like @username (for PERSON/BOOKING, null otherwise)",
      "platform": "Instagram|Fiverr|WhatsApp|Airbnb|Website|etc (for PERSON/BOOKING, null otherwise)",
      "role": "photographer|model|creator|client|etc (for PERSON, null otherwise)",
      "tags": ["style-tag-1", "style-tag-2"],
      "linked_concepts": ["concept1", "concept2"],
      "location": "city, country (if known, null otherwise)",
      "project_hint": "Photography|Personal|Work|Travel|Health (for TASK only, null otherwise)",
      "shoot_type": "portrait|couple|family|event|wedding|editorial|etc (for BOOKING, null otherwise)",
      "status": "need-to-reply|waiting|confirmed (for BOOKING, null otherwise)",
      "questions": ["client question 1", "client question 2"]
    }
  ]
}

IMPORTANT: Return ONLY the JSON object, no markdown fences, no extra text.`

// textAnalysisPrompt extracts knowledge items from a text note.
const textAnalysisPrompt = `You are a knowledge extraction assistant for a personal Obsidian vault (second brain, PARA method).

You are analyzing a text document — likely an LLM conversation, research notes, or personal writing.

CORE RULES:
- Extract up to 10 distinct knowledge items from the text
- Use [[wikilinks]] to wrap key concepts for Obsidian Graph View linking
- CONSOLIDATE related information — don't create 10 items when 3 would cover it
- Always include a "daily_snippet" — a 1-2 sentence summary of the document

ITEM TYPES — choose the most appropriate:
- TASK: Action items, things to do, follow-ups mentioned in the text
- EVENT: Scheduled events, appointments, meetings discussed
- RECIPE: Food recipes with ingredients and preparation steps
- KNOWLEDGE: Insights, research findings, explanations, how-tos, philosophical ideas, health/nutrition info, tech concepts — anything worth storing
- IDEA: Creative ideas, brainstorming, concepts to explore later
- DIARY: Personal reflections, journal entries
- PERSON: People mentioned who are worth remembering
- LOCATION: Places discussed that are worth saving
- QUOTE: Notable quotes, wisdom, memorable phrases
- LEARNING: Educational content, tutorials, courses discussed
- WISHLIST: Products/items the person wants to buy
- FINANCE: Financial info, prices, transactions
- REFERENCE: General reference info that doesn't fit other categories

KNOWLEDGE TYPE — for KNOWLEDGE items suggest a vault path where they should live, e.g. "3-Resources/Nutrition", "3-Resources/Philosophy", "3-Resources/Tech", "2-Areas/Health", "3-Resources/Psychology" — or a new logical path following the PARA pattern.

RECIPE TYPE — include "ingredients", "steps", "servings" and "prep_time" where known.

Return ONLY valid JSON in this format:
{
  "summary": "one line description of the document",
  "language": "detected primary language",
  "filename_suggestion": "2-4 words, lowercase, hyphens, no extension",
  "daily_snippet": "1-2 sentence summary with [[wikilinks]] for the daily note",
  "items": [
    {
      "type": "KNOWLEDGE|TASK|RECIPE|IDEA|EVENT|DIARY|PERSON|LOCATION|QUOTE|LEARNING|WISHLIST|FINANCE|REFERENCE",
      "content": "clean summary with [[wikilinks]] to key concepts",
      "vault_path": "suggested vault path like '3-Resources/Nutrition' (for KNOWLEDGE type, null otherwise)",
      "priority": "high|medium|low",
      "tags": ["tag1", "tag2"],
      "linked_concepts": ["concept1", "concept2"],
      "due_date": "YYYY-MM-DD (for TASK/EVENT, null otherwise)",
      "name": "person/place name (for PERSON/LOCATION, null otherwise)",
      "ingredients": ["item1", "item2"],
      "steps": ["step1", "step2"],
      "servings": "number (for RECIPE, null otherwise)",
      "prep_time": "time string (for RECIPE, null otherwise)"
    }
  ]
}

IMPORTANT: Return ONLY the JSON object, no markdown fences, no extra text.`

// BookingReplyPrompt builds the second-pass prompt that drafts a reply to a
// client's booking questions from the FAQ document.
func BookingReplyPrompt(transcript string, questions []string, faqContent string) string {
	qs := "(no specific questions detected)"
	if len(questions) > 0 {
		var b strings.Builder
		for _, q := range questions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
		qs = strings.TrimRight(b.String(), "\n")
	}

	return fmt.Sprintf(`You are a photographer's assistant. Based on the client's questions and your FAQ/pricing info, draft a friendly, professional reply.

CLIENT CONVERSATION:
%s

CLIENT QUESTIONS:
%s

YOUR FAQ & PRICING INFO:
%s

RULES:
- Be warm, friendly, professional
- Answer their specific questions using the FAQ data
- If the FAQ doesn't cover something, say "[fill in your answer]"
- Keep it concise, 2-4 sentences max
- Match the language the client used (English, Italian, Russian, etc.)
- Don't be overly formal, match the casual tone of DM conversations

Return ONLY the suggested reply text, no JSON, no formatting.`, transcript, qs, faqContent)
}
