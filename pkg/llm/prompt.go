package llm

import "strings"

// 요약 프롬프트. {store}, {reviews} 자리에 매장명과 리뷰 본문이 들어간다.
const summaryPrompt = `너는 리뷰 요약 및 평가 전문가야.
아래 매장 리뷰들(여러 출처, 최신/과거 혼재)을 읽고, 반드시 아래 JSON만 출력해.

출력 스키마(이 키/형식 그대로):
{
  "one_liner": "30~40자 핵심 한 줄 평",
  "rating": 4.3,
  "complain": ["불만사항1", "불만사항2"]
}

작성 규칙:
- 출력은 **JSON 한 덩어리만** 내고, 그 외 텍스트/설명/코드블록(` + "```" + ` 등)은 절대 포함하지 말 것.
- 언어는 한국어. 간결하고 사실 기반으로. 과장 금지, 이모지/해시태그 금지.
- "rating"은 **1.0~5.0** 사이 **소수점 한 자리**의 숫자(float)로. 근거 부족/리뷰 적으면 **3.0**에 가깝게 보수적.
- "complain"은 **리뷰에 실제로 나타난 반복/빈번한 불만**만 추출(1~2개). 사소한/단발성은 제외.
- 상반된 평이 있으면 **빈도/최근성**을 가볍게 반영해 평균적 체감 품질로 판단.
- 중복/동의어는 합치고, 각 항목은 **25자 내외**로 짧게.
- 매장명/출처/별점 숫자 등 메타는 본문에 넣지 말 것(오직 JSON 키만).

[매장명]
{store}

[리뷰들]
{reviews}
`

// BuildSummaryPrompt fills the summary template for one store.
func BuildSummaryPrompt(store, reviews string) string {
	r := strings.NewReplacer("{store}", store, "{reviews}", reviews)
	return r.Replace(summaryPrompt)
}
