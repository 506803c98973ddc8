package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"
	AuthInvalidLogin = "AUTH_INVALID_CREDENTIALS"
	AuthEmailExists  = "AUTH_EMAIL_EXISTS"

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== 스캔 태그 (SCAN_TAG_) ====================
	ScanTagInvalid  = "SCAN_TAG_INVALID"  // 존재하지 않는 태그
	ScanTagInactive = "SCAN_TAG_INACTIVE" // 비활성/교체된 태그
	ScanRateLimited = "SCAN_RATE_LIMITED" // 스캔 요청 과다

	// ==================== 체크 (CHECK_) ====================
	CheckNotFound = "CHECK_NOT_FOUND"
	CheckExpired  = "CHECK_EXPIRED"
	CheckNotOwner = "CHECK_NOT_OWNER"

	// ==================== 리뷰 (REVIEW_) ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewAlreadyExists = "REVIEW_ALREADY_EXISTS"
	ReviewInvalidInput  = "REVIEW_INVALID_INPUT"
	BusinessNotFound    = "BUSINESS_NOT_FOUND"

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
)
