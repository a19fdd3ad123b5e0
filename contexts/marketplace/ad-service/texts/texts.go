// Package texts holds user-facing bot strings. Handlers and notifiers
// import them from here instead of hardcoding text in logic.
package texts

const (
	CarAdCreated   = "✅ Объявление об авто создано!"
	PlateAdCreated = "✅ Объявление о номере создано!"
	AdPublished    = "🎉 Объявление опубликовано!"

	SendPhotosPrompt = "📸 Теперь отправьте фотографии для объявления.\n" +
		"Отправляйте по одной или нажмите кнопку, чтобы пропустить."
	SkipPhotosButton   = "⏭ Пропустить фото"
	DonePhotosButton   = "✅ Готово"
	PhotosSaved        = "✅ Сохранено %d фото!"
	PhotosLimitReached = "📸 Достигнут лимит — %d фото."
	PhotosSkipped      = "👌 Без фото."
	PhotosProgress     = "📸 Фото %d/%d. Отправьте ещё или напишите «готово»."
	PhotosUnexpected   = "📸 Отправьте фото или нажмите «⏭ Пропустить фото»"
	PhotosExpired      = "⏰ Время загрузки фото истекло. Объявление ждёт модерации как есть."
	SessionSuperseded  = "⚠️ У вас есть незавершённая загрузка фото. Пропускаем её."

	AdminNoAccess  = "🚫 У вас нет доступа к модерации."
	AdminNoPending = "✨ Нет объявлений на модерации. Всё чисто!"
	AdminApproved  = "✅ Одобрено!"
	AdminRejected  = "❌ Отклонено."
	AdminNotFound  = "Объявление не найдено."
	AdminNewAd     = "🆕 Новое объявление!"

	OwnerAdApproved = "🎉 Ваше объявление одобрено и опубликовано!"
	OwnerAdRejected = "😔 Ваше объявление не прошло модерацию."

	StartGreeting = "👋 Привет! Здесь можно разместить объявление о продаже авто или госномера.\n" +
		"Откройте мини-приложение через кнопку меню, чтобы начать."
)
