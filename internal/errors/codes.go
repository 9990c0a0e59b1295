package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationRequired     = "VALIDATION_REQUIRED"      // 필수 항목
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE" // 범위 초과

	// ==================== 검색 (SEARCH_) ====================
	SearchNearbyFailed = "SEARCH_NEARBY_FAILED" // 주변 매장 검색 실패
	SearchSuperseded   = "SEARCH_SUPERSEDED"    // 새 검색으로 대체됨
	SearchCancelled    = "SEARCH_CANCELLED"     // 요청 취소

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND" // 리소스 없음
	StoreNotFound    = "STORE_NOT_FOUND"    // 매장 없음

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
)
