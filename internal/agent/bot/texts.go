package bot

const (
	unidentifiedUser = "Error: Could not identify user."
	accessDenied     = "Access denied. This bot is private."
	genericFailure   = "Sorry, something went wrong. Please try again later or contact support if the issue persists."
	unknownCommand   = "🤔 I don't know that command.\n\nSend /help to see available commands."

	welcomeBack = "👋 Welcome back to Energy Exec!\n\n" +
		"I'm your AI-powered daily planning assistant that helps you structure your day based on your energy levels and health metrics.\n\n" +
		"You can:\n" +
		"• Log your morning check-ins (body battery, sleep, mood)\n" +
		"• Generate energy-aware day plans\n" +
		"• Track your progress over time\n\n" +
		"Send /help to see all available commands."

	helpText = "📚 Available Commands:\n\n" +
		"/start - Welcome message and introduction\n" +
		"/help - Show this help message\n" +
		"/models - View and change AI model\n" +
		"/timezone - Change your timezone\n" +
		"/checkin - Start morning check-in (body battery, sleep, mood, priorities)\n" +
		"/plan - Generate today's plan from your check-in\n" +
		"/updatePlan - Tell me what changed and I'll adjust today's plan\n" +
		"/reflect - Start evening reflection (how the day went, notes for tomorrow)\n" +
		"/planReview - Review today's plan against your reflections\n" +
		"/today - View today's daily log in a nice format\n" +
		"/viewDailyLog [YYYY-MM-DD] - View daily log for a date (defaults to today)\n\n" +
		"Daily Flow:\n" +
		"• Morning: Use /checkin to log your energy levels and priorities\n" +
		"• Throughout the day: Send me messages to get help planning or adjusting your day\n" +
		"• Evening: Use /reflect to reflect on how your day went\n" +
		"• View logs: Use /viewDailyLog to see past daily logs\n\n" +
		"You can also just chat with me anytime, and I'll help you plan your day based on your energy levels!"

	modelsMenu = "🤖 Current Model: %s\n\n" +
		"Available models:\n" +
		"1. big-pickle (free) - OpenAI-compatible\n" +
		"2. gemini-3-pro - Google Gemini\n\n" +
		"To switch models, reply with:\n" +
		"• \"1\" or \"big-pickle\" for big-pickle (free)\n" +
		"• \"2\" or \"gemini-3-pro\" for gemini-3-pro"
	modelsFailed       = "Sorry, I couldn't retrieve the model information. Please try again later."
	modelChanged       = "✅ Model changed to: %s\n\nYour next messages will use this model."
	modelChangeFailed  = "Sorry, I couldn't change the model. Please try again later."
	noLogToday         = "❌ No daily log found for today.\n\nUse /checkin to create a morning check-in first."
	reviewNoPlan       = "❌ No plan found for today.\n\nUse /checkin to generate a plan for today, or /updatePlan to create one."
	reviewNoReflection = "❌ No reflections found for today.\n\nUse /reflect to add your reflections first, then I can review your plan."
	reviewGenerating   = "🤖 Generating an AI review of your plan and reflections..."
	reviewResult       = "📊 *Plan Review & Suggestions for Tomorrow*\n\n%s"
	reviewFailed       = "❌ Sorry, I couldn't generate a plan review right now. Please try again later."
	planGenerating     = "🤖 Generating your day plan..."
	planResult         = "📋 *Your Day Plan*\n\n%s"
	planFailed         = "❌ Sorry, I couldn't generate a plan right now. Please try again later."

	todayMissing = "📅 *No log found for today (%s)*\n\nUse /checkin to create a morning check-in for today."
	todayFailed  = "❌ Sorry, I couldn't retrieve today's daily log. Please try again later."

	viewMissing     = "📅 No log found for %s.\n\nUse /checkin to create a morning check-in for today."
	viewInvalidDate = "❌ Invalid date format. Please use YYYY-MM-DD format.\n\nExample: /viewDailyLog 2024-12-01"
	viewFailed      = "❌ Sorry, I couldn't retrieve the daily log. Please try again later."
)
