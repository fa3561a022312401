package recipe

// MessageKey identifies a localized user-facing message
type MessageKey string

const (
	MsgMinIngredients      MessageKey = "min_ingredients"
	MsgRecipeNotFound      MessageKey = "recipe_not_found"
	MsgGenerationError     MessageKey = "generation_error"
	MsgInternalServerError MessageKey = "internal_server_error"
	MsgFeedbackSuccess     MessageKey = "feedback_success"
	MsgFeedbackRejected    MessageKey = "feedback_rejected"
	MsgFeedbackSaveFailed  MessageKey = "feedback_save_failed"
	MsgSearchingCache      MessageKey = "searching_cache"
	MsgSemanticHit         MessageKey = "semantic_search_hit"
	MsgSemanticMiss        MessageKey = "semantic_search_miss"
	MsgWebHit              MessageKey = "web_search_hit"
	MsgWebMiss             MessageKey = "web_search_miss"
	MsgGeneratingRecipe    MessageKey = "generating_recipe"
	MsgRecipeValidated     MessageKey = "recipe_validated"
	MsgRecipeRejected      MessageKey = "recipe_rejected"
)

var messages = map[MessageKey]map[Language]string{
	MsgMinIngredients: {
		LanguageEnglish: "At least one non-default ingredient is required (ingredients like water, salt, and oil do not count)",
		LanguageTurkish: "En az bir adet default olmayan malzeme gerekli (su, tuz ve yağ gibi malzemeler sayılmaz)",
	},
	MsgRecipeNotFound: {
		LanguageEnglish: "No suitable recipe could be found with the ingredients you provided. Please try again with different ingredients.",
		LanguageTurkish: "İlettiğiniz malzemelerle uygun bir tarif bulunamadı. Lütfen farklı malzemelerle tekrar deneyin.",
	},
	MsgGenerationError: {
		LanguageEnglish: "Unable to process your request at this time",
		LanguageTurkish: "İsteğiniz şu anda işlenemiyor",
	},
	MsgInternalServerError: {
		LanguageEnglish: "Internal Server Error",
		LanguageTurkish: "Sunucu Hatası",
	},
	MsgFeedbackSuccess: {
		LanguageEnglish: "Recipe saved successfully",
		LanguageTurkish: "Tarif başarıyla kaydedildi",
	},
	MsgFeedbackRejected: {
		LanguageEnglish: "Please try again with different ingredients.",
		LanguageTurkish: "Lütfen farklı malzemelerle tekrar deneyin.",
	},
	MsgFeedbackSaveFailed: {
		LanguageEnglish: "Failed to save your feedback",
		LanguageTurkish: "Geri bildiriminiz kaydedilemedi",
	},
	MsgSearchingCache: {
		LanguageEnglish: "Checking if we have a similar recipe in our cookbook...",
		LanguageTurkish: "Kitabımızda benzer bir tarif olup olmadığını kontrol ediyorum...",
	},
	MsgSemanticHit: {
		LanguageEnglish: "Found a very similar recipe in our collection!",
		LanguageTurkish: "Koleksiyonumuzda çok benzer bir tarif buldum!",
	},
	MsgSemanticMiss: {
		LanguageEnglish: "No similar recipes found locally, searching broader...",
		LanguageTurkish: "Benzer tarif bulunamadı, daha geniş kapsamlı arıyorum...",
	},
	MsgWebHit: {
		LanguageEnglish: "Found a great recipe from our web search!",
		LanguageTurkish: "Web aramamızda harika bir tarif buldum!",
	},
	MsgWebMiss: {
		LanguageEnglish: "No recipes found online, I will create one from scratch.",
		LanguageTurkish: "Çevrimiçi tarif bulunamadı, sıfırdan bir tane oluşturacağım.",
	},
	MsgGeneratingRecipe: {
		LanguageEnglish: "Creating a new recipe just for you...",
		LanguageTurkish: "Sizin için yeni bir tarif oluşturuyorum...",
	},
	MsgRecipeValidated: {
		LanguageEnglish: "Recipe looks delicious and follows all rules!",
		LanguageTurkish: "Tarif harika görünüyor ve tüm kurallara uygun!",
	},
	MsgRecipeRejected: {
		LanguageEnglish: "That recipe did not pass review, trying again...",
		LanguageTurkish: "Tarif incelemeyi geçemedi, tekrar deniyorum...",
	},
}

// Message returns the localized text for key, falling back to English
func Message(key MessageKey, lang Language) string {
	entry, ok := messages[key]
	if !ok {
		return "Message key '" + string(key) + "' not found"
	}
	if text, ok := entry[lang.OrDefault()]; ok {
		return text
	}
	return entry[DefaultLanguage]
}
