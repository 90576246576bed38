package model

import "time"

// Lecture is a distributed lecture record. Files live on the external
// hosting service; only their URLs are stored here.
type Lecture struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	TitleAr   string    `json:"titleAr" bson:"titleAr"`
	TitleEn   string    `json:"titleEn" bson:"titleEn"`
	Subject   string    `json:"subject" bson:"subject"`
	FileURL   string    `json:"fileUrl" bson:"fileUrl"`
	CreatedBy string    `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// NewsItem is a feed entry
type NewsItem struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	TitleAr   string    `json:"titleAr" bson:"titleAr"`
	TitleEn   string    `json:"titleEn" bson:"titleEn"`
	BodyAr    string    `json:"bodyAr" bson:"bodyAr"`
	BodyEn    string    `json:"bodyEn" bson:"bodyEn"`
	ImageURL  string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	CreatedBy string    `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Resource is a library entry pointing at externally hosted material
type Resource struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	TitleAr   string    `json:"titleAr" bson:"titleAr"`
	TitleEn   string    `json:"titleEn" bson:"titleEn"`
	Category  string    `json:"category" bson:"category"`
	FileURL   string    `json:"fileUrl" bson:"fileUrl"`
	CreatedBy string    `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
