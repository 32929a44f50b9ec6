package errors

var messages = map[string]map[string]string{
	"en": {
		ErrCodeCredential:    "API key session expired or invalid. Please connect your API key again.",
		ErrCodeRateLimited:   "The image service is busy. Please wait a moment and try again.",
		ErrCodeNoImage:       "The model returned no image for this slide.",
		ErrCodeMalformed:     "The model returned an unexpected response.",
		ErrCodeRunInProgress: "A generation is already running.",
	},
	"es": {
		ErrCodeCredential:    "La sesión de la API Key expiró o no es válida. Vuelve a conectar tu API Key.",
		ErrCodeRateLimited:   "El servicio de imágenes está ocupado. Espera un momento e inténtalo de nuevo.",
		ErrCodeNoImage:       "El modelo no devolvió ninguna imagen para esta diapositiva.",
		ErrCodeMalformed:     "El modelo devolvió una respuesta inesperada.",
		ErrCodeRunInProgress: "Ya hay una generación en curso.",
	},
}

// Localize returns the user-facing message for err in lang. Unrecognized
// errors fall back to their own message.
func Localize(err error, lang string) string {
	if err == nil {
		return ""
	}
	appErr, ok := As(err)
	if !ok {
		return err.Error()
	}
	table, ok := messages[lang]
	if !ok {
		table = messages["en"]
	}
	if msg, ok := table[appErr.Code]; ok {
		return msg
	}
	if appErr.Message != "" {
		return appErr.Message
	}
	return appErr.Error()
}
