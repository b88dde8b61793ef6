package models

const (
	// EmptyContextMarker replaces the context block when retrieval returned
	// nothing. The completion call is still made so the model can state that
	// no relevant information was found.
	EmptyContextMarker = "(no relevant context was retrieved)"

	// ContextItemFormat renders one retrieved chunk inside the context block,
	// tagged with its provenance so answers can cite it.
	ContextItemFormat = "[%d] file=%s | page=%d | chunk=%d\n%s\n"
)

var (
	GroundedSystemPrompt = `You are a retrieval-grounded assistant.
Rules:
1) Answer ONLY using the provided context. If the answer is not in the context, say you don't know.
2) Do NOT invent facts, numbers, diagnoses, citations, or sources.
3) When you use a context chunk, cite it inline like [1] or [2].
4) If multiple chunks support the same claim, cite multiple.
Style:
- Be direct. No filler.
`

	GroundedUserTemplate = `QUESTION:
%s

CONTEXT:
%s

INSTRUCTIONS:
- Use ONLY the context.
- If context is empty or insufficient, say you don't know.
`
)
