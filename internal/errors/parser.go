package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ikkim/lunchmap-backend/internal/app/service"
	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Status  int    // HTTP 상태 코드
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 내부 오류의 원문은 응답에 싣지 않는다
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
		}
	}

	// 1. 서비스 계층 sentinel
	switch {
	case errors.Is(err, service.ErrEmptyKeyword):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: err.Error()}
	case errors.Is(err, service.ErrNearbySearch):
		return ErrorInfo{Status: http.StatusBadGateway, Code: SearchNearbyFailed, Message: service.ErrNearbySearch.Error()}
	case errors.Is(err, service.ErrSearchSuperseded):
		return ErrorInfo{Status: http.StatusConflict, Code: SearchSuperseded, Message: err.Error()}
	case isCancelled(err):
		return ErrorInfo{Status: 499, Code: SearchCancelled, Message: "요청이 취소되었습니다"}
	}

	// 2. GORM 기본 에러
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	errStrLower := strings.ToLower(err.Error())

	// 3. DB 에러 (sqlite/postgres)
	if strings.Contains(errStrLower, "database is locked") ||
		strings.Contains(errStrLower, "constraint") ||
		strings.Contains(errStrLower, "sqlstate") {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalDatabaseError,
			Message: "데이터 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	// 4. 네트워크/연결 에러
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	// 5. 기본 내부 서버 오류
	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// getNotFoundMessage context에 따른 Not Found 메시지
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "store") || strings.Contains(contextLower, "매장") {
		return "매장을 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "review") || strings.Contains(contextLower, "리뷰") {
		return "리뷰를 찾을 수 없습니다"
	}

	return "요청한 데이터를 찾을 수 없습니다"
}

// getDefaultErrorMessage context에 따른 기본 에러 메시지
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "search") || strings.Contains(contextLower, "검색") {
		return "검색 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "review") || strings.Contains(contextLower, "리뷰") {
		return "리뷰 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}

	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}

// ParseAndRespond 에러를 파싱하여 응답 반환 (헬퍼 함수)
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(errorInfo.Status, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
