package flows

const (
	onboardingWelcome = "👋 Welcome! Let's get you set up.\n\n" +
		"I need to know your timezone to help you plan your day effectively.\n\n" +
		"Please send me your timezone. Examples:\n" +
		"• America/New_York\n" +
		"• Europe/Berlin\n" +
		"• Asia/Tokyo\n" +
		"• UTC\n\n" +
		"You can find your timezone at: https://en.wikipedia.org/wiki/List_of_tz_database_time_zones"
	onboardingInvalid = "❌ That doesn't look like a valid timezone.\n\n" +
		"Please try again with a valid IANA timezone identifier.\n" +
		"Examples: America/New_York, Europe/Berlin, Asia/Tokyo, UTC"
	onboardingDone = "✅ Great! Your timezone has been set to: %s\n\n" +
		"You're all set up! You can now start using Energy Exec to plan your days.\n\n" +
		"Send /help to see available commands."
	onboardingFailed = "❌ Sorry, I couldn't save your timezone. Please try again later or contact support."

	checkinIntro = "🌅 Good morning! Let's start your day with a quick check-in.\n\n" +
		"I'll ask you a few questions to understand your energy levels and priorities for today."
	checkinBattery = "1️⃣ What's your body battery level this morning? (0-100)\n\n" +
		"This is typically from your Garmin watch, or you can estimate based on how you feel."
	checkinBatteryInvalid = "❌ Please enter a number between 0 and 100.\n\n" +
		"Examples: 75, 50, 100"
	checkinSleep = "2️⃣ How was your sleep last night?\n\n" +
		"Tell me about sleep quality, duration, or any issues (e.g., \"7 hours, woke up twice\", \"restless, only 5 hours\")."
	checkinMood = "3️⃣ How are you feeling right now?\n\n" +
		"Describe your current state - motivation level, energy, mood, any physical sensations " +
		"(e.g., \"motivated but tired\", \"dizzy, low energy\", \"energetic and focused\")."
	checkinPriority     = "4️⃣ What's the most important task you need to accomplish today?"
	checkinAppointments = "5️⃣ Do you have any important appointments or meetings today?\n\n" +
		"List them or say \"none\" if you don't have any.\n" +
		"Examples: \"Meeting at 2pm\", \"Doctor appointment at 10am\", \"none\""
	checkinDone = "✅ Check-in complete! I've saved your information for today.\n\n" +
		"🤖 Generating your day plan based on your energy levels..."
	checkinPlan       = "📋 *Your Day Plan*\n\n%s"
	checkinPlanFailed = "⚠️ I couldn't generate your day plan right now.\n\n" +
		"Your check-in is saved. Use /plan to try again."
	checkinFailed = "❌ Sorry, something went wrong during the check-in. Please try again later or use /checkin to restart."

	reflectIntro = "🌌 Good evening! Let's reflect on your day.\n\n" +
		"I'll ask you a few questions to capture how your day went."
	reflectDay = "1️⃣ How did your day go?\n\n" +
		"Share what went well, what was challenging, or any highlights."
	reflectBattery = "2️⃣ What's your body battery level now? (0-100)\n\n" +
		"You can skip this by typing \"skip\" if you don't have it."
	reflectBatteryWarning = "⚠️ Couldn't parse that number. Skipping body battery end value."
	reflectNotes          = "3️⃣ Any notes or reminders for tomorrow?\n\n" +
		"You can skip this by typing \"skip\" if you don't have any."
	reflectDone = "✅ Reflection saved! Thank you for sharing.\n\n" +
		"Have a good rest, and I'll see you tomorrow for your morning check-in! 🌙"
	reflectFailed = "❌ Sorry, something went wrong during the reflection. Please try again later or use /reflect to restart."

	updateNoLog = "📅 *No daily log found for today*\n\n" +
		"Use /checkin to create a morning check-in first."
	updateNoPlan = "📋 *No plan found for today*\n\n" +
		"Complete your morning check-in with /checkin to generate a plan first."
	updatePrompt = "📋 *Plan Update*\n\n" +
		"What changed or what would you like to update in your plan?\n\n" +
		"Example: \"Meeting cancelled, need to shift work blocks earlier\""
	updateEmpty      = "❌ Please provide details about what you'd like to update."
	updateProcessing = "🔄 Processing your plan update..."
	updateDiff       = "📋 *Plan Changes*\n\n%s"
	updateSaved      = "✅ *Plan updated*\n\n" +
		"The full plan has been regenerated and saved. Use /today to view the complete updated plan."
	updateRegenFailed = "⚠️ I showed you the changes, but couldn't regenerate the full plan right now.\n\n" +
		"The changes are shown above. You can ask me to regenerate the plan again later."
	updateFailed = "❌ Sorry, I couldn't process your plan update. Please try again later."
)
