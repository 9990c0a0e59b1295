package model

import (
	"time"
)

type Source string // 리뷰 출처

const (
	SourceKakao  Source = "kakao"  // 카카오맵
	SourceGoogle Source = "google" // 구글맵
	SourceNaver  Source = "naver"  // 네이버 지도
)

// Sources lists every provider in the fixed order used for crawling and shaping.
func Sources() []Source {
	return []Source{SourceKakao, SourceGoogle, SourceNaver}
}

// MaxStoreImages is how many image URLs a store row keeps.
const MaxStoreImages = 3

type Store struct {
	ID        uint      `gorm:"primarykey" json:"id"`                           // 고유 매장 ID
	Name      string    `gorm:"index:idx_stores_name" json:"name"`              // 매장명
	Address   *string   `gorm:"type:text" json:"address"`                       // 주소
	Lat       *float64  `json:"lat"`                                            // 위도 (WGS84)
	Lng       *float64  `json:"lng"`                                            // 경도 (WGS84)
	Img1      *string   `json:"img1,omitempty"`                                 // 매장 이미지 1~3
	Img2      *string   `json:"img2,omitempty"`
	Img3      *string   `json:"img3,omitempty"`
	StoreKey  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"` // sha256(이름|주소)
	CreatedAt time.Time `json:"created_at"`                                     // 생성 시각
	UpdatedAt time.Time `json:"updated_at"`                                     // 수정 시각
}

func (Store) TableName() string {
	return "stores"
}

// Images returns the non-empty image URLs in slot order.
func (s *Store) Images() []string {
	images := make([]string, 0, MaxStoreImages)
	for _, img := range []*string{s.Img1, s.Img2, s.Img3} {
		if img != nil && *img != "" {
			images = append(images, *img)
		}
	}
	return images
}

type Review struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	StoreID    uint      `gorm:"not null;index:idx_reviews_store" json:"store_id"`       // 매장 ID
	Source     Source    `gorm:"type:varchar(20);index:idx_reviews_source" json:"source"` // 출처
	Review     string    `gorm:"type:text" json:"review"`                                 // 리뷰 원문
	ReviewHash string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`          // sha256(store|source|본문)
	FirstSeen  time.Time `json:"first_seen"`                                              // 최초 수집
	LastSeen   time.Time `gorm:"index:idx_reviews_last_seen" json:"last_seen"`            // 최근 수집

	Store Store `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}
