package util

import "errors"

var (
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrCourseNotFound      = errors.New("course not found")
	ErrCourseNotPublished  = errors.New("course not published or not accessible")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrQuizNotFound        = errors.New("quiz not found for this lesson")
	ErrQuizRequired        = errors.New("lesson has a quiz, complete it by passing the quiz")
	ErrQuizHasNoQuestions  = errors.New("quiz has no questions to grade")
	ErrDuplicateOrderIndex = errors.New("order index already used in this parent")
	ErrCatalogLocked       = errors.New("mandatory training not completed")
)
