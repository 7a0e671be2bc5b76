// messages.go contains message templates for Telegram.

package telegram

// Error messages.
const (
	msgNotFound      = "Nothing found with that id. Check the spelling and try again."
	msgTopicLocked   = "🔒 This topic is locked. Complete its prerequisites first, see /plan."
	msgBrokenSubject = "This subject's syllabus is broken (cyclic or unknown prerequisites). Ask its author to re-import it."
	msgInvalidInput  = "Invalid value."
	msgTryLater      = "The service is busy right now. Try again in a minute."
	msgInternalError = "Something went wrong. Try again later."
)

// Usage messages.
const (
	msgUsePlan     = "Usage: /plan &lt;subject&gt;"
	msgUseEnroll   = "Usage: /enroll &lt;subject&gt;"
	msgUseBegin    = "Usage: /begin &lt;topic&gt;"
	msgUseDone     = "Usage: /done &lt;topic&gt;"
	msgUseReopen   = "Usage: /reopen &lt;topic&gt;"
	msgUseLog      = "Usage: /log &lt;topic&gt; &lt;minutes&gt;, minutes must be positive"
	msgUseStats    = "Usage: /stats &lt;subject&gt;"
	msgUseCommands = "I understand commands only. Send /help to see them."
)

const (
	msgWelcome = "<b>👋 Welcome!</b>\n\n" +
		"I plan what to study next from your syllabus and schedule flashcard reviews " +
		"so that you see each card right before you would forget it.\n\n" + msgHelp

	msgHelp = "<b>Commands</b>\n" +
		"/plan &lt;subject&gt; — ranked study plan\n" +
		"/enroll &lt;subject&gt; — add the subject's flashcards to your reviews\n" +
		"/begin &lt;topic&gt; — start a topic\n" +
		"/done &lt;topic&gt; — mark a topic completed\n" +
		"/reopen &lt;topic&gt; — reset a topic to not started\n" +
		"/log &lt;topic&gt; &lt;minutes&gt; — log study time\n" +
		"/review [topic] — review due flashcards\n" +
		"/stats &lt;subject&gt; — progress summary\n" +
		"/reminders — turn review reminders on or off"

	msgUnknownCommand = "Unknown command.\n\n" + msgHelp

	msgNoDueReviews   = "🎉 Nothing to review right now. Come back later."
	msgSessionExpired = "This review session has ended. Start a new one with /review."
	msgSessionStopped = "⏹ Review stopped."
	msgRemindersOn    = "🔔 Reminders are on. I will message you when cards are due."
	msgRemindersOff   = "🔕 Reminders are off."
)
