package errs

import "net/http"

// errorMap holds the user message and HTTP status of every application error code.
// Messages are shown to users verbatim.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "معطيات الطلب غير صالحة."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "صيغة الطلب غير مدعومة."},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "صيغة الطلب غير مدعومة."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "يحتوي الطلب على بيانات غير متوقعة."},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "تعذرت معالجة البيانات المرفوعة."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "حجم الطلب كبير جداً.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "طلبات كثيرة جداً. الرجاء المحاولة لاحقاً.", Status: http.StatusTooManyRequests},

	// 2xxx: Message and Attachment Errors
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "لا يمكن إرسال رسالة فارغة."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "الرسالة طويلة جداً."},
	ErrMessageSendFailed:     {Code: ErrMessageSendFailed, Message: "فشل إرسال الرسالة. الرجاء المحاولة مرة أخرى."},
	ErrAttachmentInvalid:     {Code: ErrAttachmentInvalid, Message: "المرفق غير صالح."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "حجم الملف كبير جداً."},

	// 3xxx: User, Session, and Security Errors
	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "التحقق مطلوب. الرجاء المحاولة مرة أخرى."},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "فشل التحقق. الرجاء المحاولة مرة أخرى."},
	ErrMissingCredentials:   {Code: ErrMissingCredentials, Message: "الرجاء إدخال اسم المستخدم وكلمة المرور"},
	ErrUserAlreadyExists:    {Code: ErrUserAlreadyExists, Message: "اسم المستخدم موجود بالفعل"},
	ErrInvalidCredentials:   {Code: ErrInvalidCredentials, Message: "اسم المستخدم أو كلمة المرور غير صحيحة"},
	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "الرجاء تسجيل الدخول للمتابعة.", Status: http.StatusUnauthorized},
	ErrInvalidAPIKey:        {Code: ErrInvalidAPIKey, Message: "مفتاح الوصول غير صالح.", Status: http.StatusUnauthorized},

	// 4xxx: Configuration Errors
	ErrStoreNotConfigured: {Code: ErrStoreNotConfigured, Message: "التطبيق غير مهيأ. الرجاء اتباع التعليمات لإضافة مفاتيح الاتصال.", Status: http.StatusServiceUnavailable},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "حدث خطأ. الرجاء المحاولة مرة أخرى.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "فشل رفع الملف. الرجاء المحاولة مرة أخرى."},
	ErrStoreUnavailable:  {Code: ErrStoreUnavailable, Message: "حدث خطأ. الرجاء المحاولة مرة أخرى.", Status: http.StatusBadGateway},
}
