package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/omriShneor/telcal/internal/session"
)

// User-facing replies.
const (
	msgMaintenance = "Sorry, the bot is temporarily unavailable due to technical work. Try again later"

	msgOperationCanceled = "Operation canceled"
	msgWillBeCreated     = "Will be created:\n"
	msgWhatSettings      = "What settings do you want to set?"
	msgSelectCalendar    = "Select a calendar:"
	msgFollowLink        = "Follow the link, copy the code and send it to the bot"
	msgEventCreated      = "Event created in Google Calendar."

	msgRequestAnalytics = "Send message with period and keyword (optional)"
	msgRequestSearch    = "Send message with period, keyword (optional) and type search (optional)."
	msgRequestKeywords  = "Enter, separated by commas, keywords that will be set at the beginning " +
		"of the description of your event. For example, you have a shared calendar and you set the " +
		"keywords: \"Mike, Teresa\". Then you send a request: \"Tomorrow at 11 go to the store, Mike\". " +
		"The request will be processed and an event will be created for the corresponding date with the " +
		"description \"Mike. Go to the store\"."
	msgRequestDefaultKeyword = "Enter a default keyword that will be automatically set " +
		"in cases where the keyword is missing."
	msgRequestCompoundKeywords = "Enter keywords to compound. Groups of words are separated by commas." +
		"For example: \"Partner1 Partner2, My family\" means that the words \"Partner1 Partner2\" will be counted " +
		"as one keyword and \"My family\" will be counted as one (other) keyword."
	msgRequestSubmit = "Send your Gmail address to request access to the bot."

	msgCalendarSuccess         = "Calendar access has been successfully configured."
	msgKeywordsSuccess         = "Keywords access has been successfully configured."
	msgDefaultKeywordSuccess   = "Default keyword access has been successfully configured."
	msgCompoundKeywordsSuccess = "Compound keywords access has been successfully configured."
	msgKeywordsCleaned         = "All keywords were successfully cleaned."
	msgRequestSent             = "Your request has been sent to the administrator."
	msgAccessGranted           = "Access has been granted. Use /start to connect your calendar."
	msgAccessDenied            = "Access has been denied."
	msgRateLimited             = "Too many requests. Please wait a moment and try again."

	errCreatingEvent       = "Error creating event in calendar."
	errReceivingAudio      = "Error receiving audio file from telegram."
	errSavingCalendar      = "Error saving calendar data."
	errSavingKeywords      = "Error saving keywords data."
	errSavingDefault       = "Error saving default keyword data."
	errSavingCompound      = "Error saving compound keywords data."
	errCleaningKeywords    = "Error cleaning keywords."
	errCollectingAnalytics = "Error collecting analytics."
	errSearching           = "Error searching events."
	errAccessingCalendar   = "Error accessing calendar"
	errIncorrectFormat     = "Incorrect message format."
	errLanguageModel       = "Error receiving response from the language model."
	errAuthorization       = "Error retrieving authorization data."
)

const helpText = "You can:\n" +
	"- add events using a text message\n" +
	"- add events using an audio message\n" +
	"- search events\n" +
	"- view analytics for events\n\n" +
	"1. For add events using a text message send text in the format: \"Date Time Description\". " +
	"Date and time can be written freely, for example: 31.01.2024 12:00 Some description. " +
	"The event is shown to you for confirmation before it is created.\n\n" +
	"2. For add events using an audio message send audio message in a free format. " +
	"You must somehow specify the start date and description. Optionally, you can " +
	"specify the duration (default is 1 hour) and start time (default is 9.00). " +
	"To indicate duration, you can either state the start and end times (e.g., \"from eight to ten\") " +
	"or say the word 'duration' (any language) followed by the duration (e.g., \"duration two hours\").\n\n" +
	"3. You can send a request to search for an event in text or audio format (command /search). " +
	"Required period, keyword (optional) and type search (optional, value: first/last/all). " +
	"In voice format: State the period in free format. If a keyword is required, " +
	"say in any language \"keyword\" followed by the name. If a type search required say it in free format (by default value = all).\n\n" +
	"4. You can send a request to view analytics for an event in text or audio format (command /analytics). " +
	"Enter period and keyword (optional). " +
	"In voice format: State the period in free format and if a keyword is required, say \"keyword\" followed by the name.\n\n" +
	"5. Bot settings are set at startup (command /start). You can also change the settings using the command /setting"

// Commands.
const (
	cmdStart     = "/start"
	cmdHelp      = "/help"
	cmdSearch    = "/search"
	cmdAnalytics = "/analytics"
	cmdSetting   = "/setting"
	cmdReply     = "/reply"
)

// Callback payloads.
const (
	cbConfirmEvent      = "confirm_event"
	cbCancelEvent       = "cancel_event"
	cbAllSettings       = "all_settings"
	cbKeywords          = "keywords"
	cbDefaultKeyword    = "default_keyword"
	cbCompoundKeywords  = "compound_keywords"
	cbClearAllKeywords  = "clear_all_keywords"
	cbSubmit            = "submit"
	cbCalendarPrefix    = "Calendar/"
	calendarPayloadSize = 3
)

// Button labels.
const (
	btnConfirm          = "Confirm"
	btnCancel           = "Cancel"
	btnSettings         = "Connection settings"
	btnKeywords         = "Keywords"
	btnDefaultKeyword   = "Default keyword"
	btnCompoundKeywords = "Compound keywords"
	btnClearKeywords    = "Clear all keywords"
	btnSubmit           = "Submit a request"
)

func text(conversationID, body string) Message {
	return Message{ConversationID: conversationID, Text: body}
}

func confirmationMessage(conversationID, eventLine string) Message {
	return Message{
		ConversationID: conversationID,
		Text:           msgWillBeCreated + eventLine,
		Rows: [][]Button{
			{{Label: btnConfirm, Data: cbConfirmEvent}, {Label: btnCancel, Data: cbCancelEvent}},
		},
	}
}

func settingsMessage(conversationID string) Message {
	return Message{
		ConversationID: conversationID,
		Text:           msgWhatSettings,
		Rows: [][]Button{
			{{Label: btnSubmit, Data: cbSubmit}},
			{{Label: btnSettings, Data: cbAllSettings}, {Label: btnCancel, Data: cbCancelEvent}},
			{
				{Label: btnKeywords, Data: cbKeywords},
				{Label: btnDefaultKeyword, Data: cbDefaultKeyword},
				{Label: btnCompoundKeywords, Data: cbCompoundKeywords},
			},
			{{Label: btnClearKeywords, Data: cbClearAllKeywords}},
		},
	}
}

// calendarChoiceMessage renders one button per calendar, in choice order.
func calendarChoiceMessage(conversationID, userID string, set session.CalendarChoiceSet) Message {
	rows := make([][]Button, len(set.Choices))
	for i, c := range set.Choices {
		rows[i] = []Button{{Label: c.Name, Data: calendarPayload(userID, i)}}
	}
	return Message{ConversationID: conversationID, Text: msgSelectCalendar, Rows: rows}
}

func calendarPayload(userID string, index int) string {
	return cbCalendarPrefix + userID + "/" + strconv.Itoa(index)
}

// parseCalendarPayload splits "Calendar/<userId>/<index>".
func parseCalendarPayload(data string) (userID string, index int, ok bool) {
	parts := strings.Split(data, "/")
	if len(parts) != calendarPayloadSize || parts[0]+"/" != cbCalendarPrefix {
		return "", 0, false
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, false
	}
	return parts[1], index, true
}

func relayText(userID, conversationID, body string) string {
	return fmt.Sprintf("New request. User id: %s. Chat id: %s. Message: %s", userID, conversationID, body)
}
