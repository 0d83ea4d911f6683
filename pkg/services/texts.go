package services

// User-facing texts are written in English and translated per session.
const (
	greetingText = "Namaste! I am Nyay Sahayak, your guide to the Indian legal system. Ask me about your rights, legal procedures or the courts. You can also send a voice message, upload a legal document with /doc, or start learning with /learn."

	busyText            = "Please wait, I am still working on your previous request."
	chatClearedText     = "Chat history cleared. Ask me a new question!"
	generationErrorText = "Sorry, I encountered an error communicating with the AI. Please try again."
	emptyReplyText      = "I could not generate a reply. Please try rephrasing your question."
	speechErrorText     = "Sorry, I could not generate audio for this message."
	messageExpiredText  = "This message is no longer available."
	loggedOutText       = "You have been logged out. Send /start to begin again."
	unknownCommandText  = "Sorry, I do not know that command."

	documentPromptText   = "Send me a photo or an image file (JPG, PNG or WebP, up to 5 MB) of a legal document and I will summarize it. Then ask any question about it. Send /done when you are finished."
	documentTooLargeText = "The file is too large. The maximum size is 5 MB."
	documentTypeText     = "Unsupported file type. Please upload a JPG, PNG or WebP image."
	documentErrorText    = "Sorry, I encountered an error processing the document. Please try again."
	documentDoneText     = "Document closed. You are back in the legal chat."
	noDocumentText       = "There is no document open. Send /doc to start."

	transcriptionErrorText = "Sorry, I could not understand the audio. Please try again."
	emptyTranscriptText    = "No speech was detected in the recording. Please try again."
	transcriptPrefix       = "🎙 "

	chooseLanguageText = "Choose your language:"
	languageSetText    = "Language updated."

	speakLabel = "🔊 Listen"
)

// summaryPrompt is asked of every freshly uploaded document.
const summaryPrompt = "Summarize this legal document. Highlight the key points, the parties involved and any obligations or deadlines it mentions."
