package handlers

import (
	"context"
	"fmt"
	"slices"

	"PharmaBot/internal/constants"
	"PharmaBot/internal/formatters"
	"PharmaBot/internal/gateway"
	"PharmaBot/internal/models"
	"PharmaBot/internal/session"
	"PharmaBot/internal/utils"
)

// Подсказки анкеты пациента.
const (
	promptWelcome = "بیمار گرامی، به ربات داروخانه خوش آمدید!\n\n" +
		"برای ثبت پرونده و درخواست دارو، لطفاً از دکمه زیر برای شروع فرآیند استفاده کنید."
	promptFullName    = "لطفاً نام و نام خانوادگی خود را وارد کنید:"
	promptNationalID  = "لطفاً کد ملی ۱۰ رقمی خود را وارد کنید:"
	promptPhone       = "لطفاً شماره موبایل خود را وارد کنید (مثال: 09123456789):"
	promptGender      = "جنسیت خود را انتخاب کنید:"
	promptAge         = "لطفاً سن خود را به عدد وارد کنید (مثال: 35):"
	promptWeight      = "لطفاً وزن خود را به کیلوگرم وارد کنید (مثال: 75.5):"
	promptHeight      = "لطفاً قد خود را به سانتی‌متر وارد کنید (مثال: 180):"
	promptDescription = "اطلاعات اولیه شما ثبت شد.\n\n" +
		"حالا لطفاً توضیحات کاملی در مورد بیماری، علائم و داروهای مورد نیاز خود را در یک پیام وارد کنید."
	promptConditions = "اگر شرایط خاصی دارید (بارداری، حساسیت دارویی، بیماری زمینه‌ای و ...) بنویسید، در غیر این صورت دکمه زیر را بزنید."
	promptPhotos     = "بسیار خب. حالا لطفاً عکس‌های مربوط به مشکل خود را ارسال کنید.\n" +
		"(مثلاً عکس نسخه، عکس از ناحیه پوست و ...)\n\n" +
		"پس از ارسال تمام عکس‌ها، روی دکمه 'پایان ثبت‌نام' کلیک کنید."
	promptPhotoOnly   = "در این مرحله لطفاً فقط عکس ارسال کنید یا روی دکمه‌های زیر پیام کلیک کنید."
	promptNextPhoto   = "منتظر عکس بعدی شما هستم..."
	promptPhotosLimit = "حداکثر تعداد عکس ارسال شده است. لطفاً روی دکمه 'پایان ثبت‌نام' کلیک کنید."
)

// patientIdle: зарегистрированный пациент уходит на шаг по статусу бэкенда,
// новый видит приглашение к регистрации.
func (bh *BotHandler) patientIdle(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	patient, err := bh.Deps.Gateway.GetPatientByTelegramID(ctx, ev.ActorID)
	switch {
	case gateway.IsNotFound(err):
	case err != nil:
		return s, err
	default:
		s.PatientData().PatientID = patient.PatientID
		return bh.syncPatientStatus(ctx, ev, s, patient)
	}

	if ev.Is(constants.CB_START_REGISTRATION) {
		bh.log.Infof("[PATIENT] Актор %d начал регистрацию", ev.ActorID)
		s.PatientData().Profile = session.ProfileDraft{CreateKey: bh.Deps.NewKey()}
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptFullName, keyboard(cancelRow()))
		return s.WithStage(constants.STATE_PATIENT_FULL_NAME), nil
	}
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptWelcome, patientStartKeyboard())
	return s, nil
}

// reprompt - ошибка валидации: текст ошибки, шаг не меняется.
func (bh *BotHandler) reprompt(ctx context.Context, ev Event, s session.Session, text string) (session.Session, error) {
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, text, keyboard(cancelRow()))
	return s, nil
}

func (bh *BotHandler) advance(ctx context.Context, ev Event, s session.Session, next constants.Stage, prompt string) (session.Session, error) {
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, prompt, keyboard(cancelRow()))
	return s.WithStage(next), nil
}

func (bh *BotHandler) patientFullName(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	name, err := utils.ValidateFullName(ev.Text)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	s.PatientData().Profile.FullName = name
	return bh.advance(ctx, ev, s, constants.STATE_PATIENT_NATIONAL_ID, promptNationalID)
}

func (bh *BotHandler) patientNationalID(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	code, err := utils.ValidateNationalID(ev.Text)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	s.PatientData().Profile.NationalID = code
	return bh.advance(ctx, ev, s, constants.STATE_PATIENT_PHONE, promptPhone)
}

func (bh *BotHandler) patientPhone(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	phone, err := utils.ValidatePhoneNumber(ev.Text)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	s.PatientData().Profile.Phone = phone
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptGender, genderKeyboard())
	return s.WithStage(constants.STATE_PATIENT_GENDER), nil
}

func (bh *BotHandler) patientGender(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	var gender string
	switch {
	case ev.Is(constants.CB_GENDER_MALE):
		gender = "male"
	case ev.Is(constants.CB_GENDER_FEMALE):
		gender = "female"
	default:
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptGender, genderKeyboard())
		return s, nil
	}
	s.PatientData().Profile.Gender = gender
	return bh.advance(ctx, ev, s, constants.STATE_PATIENT_AGE, promptAge)
}

func (bh *BotHandler) patientAge(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	age, err := utils.ValidateAge(ev.Text)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	s.PatientData().Profile.Age = age
	return bh.advance(ctx, ev, s, constants.STATE_PATIENT_WEIGHT, promptWeight)
}

func (bh *BotHandler) patientWeight(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	weight, err := utils.ValidateWeight(ev.Text)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	s.PatientData().Profile.Weight = weight
	return bh.advance(ctx, ev, s, constants.STATE_PATIENT_HEIGHT, promptHeight)
}

func (bh *BotHandler) patientHeight(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	height, err := utils.ValidateHeight(ev.Text)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	s.PatientData().Profile.Height = height
	return bh.advance(ctx, ev, s, constants.STATE_PATIENT_DESCRIPTION, promptDescription)
}

func (bh *BotHandler) patientDescription(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	text, err := utils.ValidateFreeText(ev.Text, 3)
	if err != nil {
		return bh.reprompt(ctx, ev, s, err.Error())
	}
	s.PatientData().Profile.Description = text
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptConditions, skipConditionsKeyboard())
	return s.WithStage(constants.STATE_PATIENT_SPECIAL_CONDITIONS), nil
}

func (bh *BotHandler) patientSpecialConditions(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	if !ev.Is(constants.CB_SKIP_CONDITIONS) {
		text, err := utils.ValidateFreeText(ev.Text, 2)
		if err != nil {
			bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptConditions, skipConditionsKeyboard())
			return s, nil
		}
		s.PatientData().Profile.SpecialConditions = text
	}
	bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptPhotos, photoConfirmationKeyboard())
	return s.WithStage(constants.STATE_PATIENT_PHOTOS), nil
}

// patientPhotos копит фото анкеты; кнопка завершения отправляет анкету на бэкенд.
func (bh *BotHandler) patientPhotos(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	profile := &s.PatientData().Profile
	switch {
	case ev.Is(constants.CB_FINISH_REGISTRATION):
		return bh.finishRegistration(ctx, ev, s)

	case ev.Is(constants.CB_ADD_ANOTHER_PHOTO):
		bh.sendOrEditMessageHelper(ctx, ev, promptNextPhoto, photoConfirmationKeyboard())
		return s, nil

	case ev.Attachment != nil && ev.Attachment.Kind == models.MessageKindPhoto:
		if len(profile.PhotoPaths) >= constants.MAX_PROFILE_PHOTOS {
			bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptPhotosLimit, photoConfirmationKeyboard())
			return s, nil
		}
		path, err := bh.Deps.Media.Store(ctx, *ev.Attachment, ev.ActorID, constants.MEDIA_PURPOSE_PROFILE)
		if err != nil {
			return s, err
		}
		if !slices.Contains(profile.PhotoPaths, path) {
			profile.PhotoPaths = append(profile.PhotoPaths, path)
		}
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, fmt.Sprintf(
			"عکس شما دریافت شد. (تعداد عکس‌های ارسالی: %d)\nآیا عکس دیگری هم می‌خواهید ارسال کنید؟",
			len(profile.PhotoPaths)), photoConfirmationKeyboard())
		return s, nil

	default:
		bh.sendMessageWithKeyboard(ctx, ev.ChatID, promptPhotoOnly, photoConfirmationKeyboard())
		return s, nil
	}
}

// finishRegistration - один POST /patients/ с ключом идемпотентности из черновика.
// Повтор после сбоя отправит тот же ключ.
func (bh *BotHandler) finishRegistration(ctx context.Context, ev Event, s session.Session) (session.Session, error) {
	p := s.PatientData()
	if p.Profile.CreateKey == "" {
		p.Profile.CreateKey = bh.Deps.NewKey()
	}
	draft := p.Profile
	created, err := bh.Deps.Gateway.CreatePatient(ctx, models.PatientCreate{
		TelegramID:         ev.ActorID,
		FullName:           draft.FullName,
		NationalID:         draft.NationalID,
		PhoneNumber:        draft.Phone,
		Gender:             draft.Gender,
		Age:                draft.Age,
		Weight:             draft.Weight,
		Height:             draft.Height,
		DiseaseDescription: draft.Description,
		SpecialConditions:  draft.SpecialConditions,
		PhotoPaths:         draft.PhotoPaths,
	}, draft.CreateKey)
	if err != nil {
		return s, err
	}
	bh.log.Infof("[PATIENT] Актор %d зарегистрирован как пациент %d", ev.ActorID, created.PatientID)

	p.PatientID = created.PatientID
	p.Profile = session.ProfileDraft{}
	bh.sendOrEditMessageHelper(ctx, ev, formatters.FormatProfileSummary(draft), nil)
	return s.WithStage(constants.STATE_PATIENT_AWAITING_CONSULTATION), nil
}
