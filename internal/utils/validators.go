package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Сообщения об ошибках показываются пользователю как есть, поэтому они на персидском.
// Validation errors are shown to the actor verbatim, hence Persian text.

var (
	phoneRegex    = regexp.MustCompile(`^09\d{9}$`)
	nationalRegex = regexp.MustCompile(`^\d{10}$`)
	trackingRegex = regexp.MustCompile(`^[A-Za-z0-9\-]{4,40}$`)
)

// digitReplacer переводит персидские и арабские цифры в ASCII.
var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4", "٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizeDigits заменяет персидские/арабские цифры и обрезает пробелы.
func NormalizeDigits(s string) string {
	return strings.TrimSpace(digitReplacer.Replace(s))
}

// ValidateAge: целое число в диапазоне [1,120].
func ValidateAge(input string) (int, error) {
	age, err := strconv.Atoi(NormalizeDigits(input))
	if err != nil {
		return 0, fmt.Errorf("لطفاً سن را فقط به صورت عدد وارد کنید.")
	}
	if age < 1 || age > 120 {
		return 0, fmt.Errorf("سن باید عددی بین ۱ تا ۱۲۰ باشد.")
	}
	return age, nil
}

// ValidateWeight: число с плавающей точкой в [10,300]; запятая допускается как разделитель.
func ValidateWeight(input string) (float64, error) {
	s := strings.ReplaceAll(NormalizeDigits(input), ",", ".")
	s = strings.ReplaceAll(s, "٫", ".")
	weight, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("لطفاً وزن را به صورت یک عدد معتبر وارد کنید (مثال: 75 یا 75.5).")
	}
	if weight < 10 || weight > 300 {
		return 0, fmt.Errorf("وزن باید بین ۱۰ تا ۳۰۰ کیلوگرم باشد.")
	}
	return weight, nil
}

// ValidateHeight: целое число сантиметров в [50,250].
func ValidateHeight(input string) (int, error) {
	height, err := strconv.Atoi(NormalizeDigits(input))
	if err != nil {
		return 0, fmt.Errorf("لطفاً قد را فقط به صورت عدد (سانتی‌متر) وارد کنید.")
	}
	if height < 50 || height > 250 {
		return 0, fmt.Errorf("قد باید بین ۵۰ تا ۲۵۰ سانتی‌متر باشد.")
	}
	return height, nil
}

// ValidateNationalID проверяет иранский национальный код:
// 10 цифр, не все одинаковые, контрольная цифра по взвешенной сумме mod 11.
func ValidateNationalID(input string) (string, error) {
	code := NormalizeDigits(input)
	if !nationalRegex.MatchString(code) {
		return "", fmt.Errorf("کد ملی باید دقیقاً ۱۰ رقم باشد.")
	}
	if strings.Count(code, code[:1]) == len(code) {
		return "", fmt.Errorf("کد ملی وارد شده معتبر نیست.")
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(code[i]-'0') * (10 - i)
	}
	check := int(code[9] - '0')
	rem := sum % 11
	if (rem < 2 && check != rem) || (rem >= 2 && check != 11-rem) {
		return "", fmt.Errorf("کد ملی وارد شده معتبر نیست.")
	}
	return code, nil
}

// ValidatePhoneNumber: мобильный номер формата 09XXXXXXXXX.
func ValidatePhoneNumber(input string) (string, error) {
	phone := strings.ReplaceAll(NormalizeDigits(input), " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	if !phoneRegex.MatchString(phone) {
		return "", fmt.Errorf("شماره موبایل باید با ۰۹ شروع شود و ۱۱ رقم باشد (مثال: 09123456789).")
	}
	return phone, nil
}

// ValidateFullName: непустое имя разумной длины.
func ValidateFullName(input string) (string, error) {
	name := strings.Join(strings.Fields(input), " ")
	if len([]rune(name)) < 3 {
		return "", fmt.Errorf("لطفاً نام و نام خانوادگی کامل را وارد کنید.")
	}
	if len([]rune(name)) > 100 {
		return "", fmt.Errorf("نام وارد شده بیش از حد طولانی است.")
	}
	return name, nil
}

// ValidateFreeText: обязательный свободный текст (описание болезни и т.п.).
func ValidateFreeText(input string, minRunes int) (string, error) {
	text := strings.TrimSpace(input)
	if len([]rune(text)) < minRunes {
		return "", fmt.Errorf("لطفاً توضیحات کامل‌تری وارد کنید.")
	}
	return text, nil
}

// ValidateAmount: положительная целая сумма; допускаются разделители тысяч.
func ValidateAmount(input string) (int64, error) {
	s := NormalizeDigits(input)
	s = strings.NewReplacer(",", "", "٬", "", "،", "", " ", "", "ریال", "").Replace(s)
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("لطفاً مبلغ پرداختی را به صورت عدد صحیح و به ریال وارد کنید.")
	}
	return amount, nil
}

// ValidateTrackingCode: код отслеживания платежа из 4-40 символов.
func ValidateTrackingCode(input string) (string, error) {
	code := NormalizeDigits(input)
	if !trackingRegex.MatchString(code) {
		return "", fmt.Errorf("کد پیگیری باید بین ۴ تا ۴۰ کاراکتر و شامل حروف لاتین یا اعداد باشد.")
	}
	return code, nil
}
