package llm

// SummaryPrompt instructs the model to condense a lecture or meeting transcript.
const SummaryPrompt = `You summarize speech transcripts produced by automatic speech recognition.
The text may be missing punctuation and may contain "..." where a passage could not be understood.
Write a concise summary in plain prose covering the main topics, decisions, and conclusions.
Do not invent details that are not in the transcript.`
