package models

// Spot is a real-world location players check into.
type Spot struct {
	ID                 string   `gorm:"primaryKey;size:64" json:"id" bson:"id"`
	Name               string   `gorm:"size:255;not null" json:"name" bson:"name"`
	Description        string   `gorm:"type:text" json:"description" bson:"description"`
	Latitude           float64  `json:"latitude" bson:"latitude"`
	Longitude          float64  `json:"longitude" bson:"longitude"`
	Category           string   `gorm:"size:64;index" json:"category" bson:"category"`
	CreatedAt          string   `gorm:"size:40" json:"createdAt" bson:"createdAt"`
	CreatedBy          string   `gorm:"size:64;index" json:"createdBy" bson:"createdBy"`
	CurrentActiveUsers int      `gorm:"-" json:"currentActiveUsers" bson:"currentActiveUsers"`
	Reviews            []Review `gorm:"foreignKey:SpotID;references:ID" json:"reviews" bson:"reviews"`
}

// Review is an immutable rating left on a spot. AuthorName is a copy of the
// author's display name, not a reference.
type Review struct {
	ID             string  `gorm:"primaryKey;size:64" json:"id" bson:"id"`
	SpotID         string  `gorm:"index;size:64;not null" json:"-" bson:"-"`
	Position       int     `gorm:"not null;default:0" json:"-" bson:"-"`
	AuthorName     string  `gorm:"size:64;index" json:"authorName" bson:"authorName"`
	RatingRevenue  float64 `json:"ratingRevenue" bson:"ratingRevenue"`
	RatingSecurity float64 `json:"ratingSecurity" bson:"ratingSecurity"`
	RatingTraffic  float64 `json:"ratingTraffic" bson:"ratingTraffic"`
	Attribute      string  `gorm:"size:64" json:"attribute" bson:"attribute"`
	Comment        string  `gorm:"type:text" json:"comment" bson:"comment"`
	CreatedAt      string  `gorm:"size:40" json:"createdAt" bson:"createdAt"`
}

// RatingAverages holds the mean of each rating dimension.
type RatingAverages struct {
	Revenue  float64
	Security float64
	Traffic  float64
	Count    int
}

// Averages computes the current rating means. Count is 0 for a spot without
// reviews, in which case every mean is 0 as well.
func (s *Spot) Averages() RatingAverages {
	var avg RatingAverages
	for _, r := range s.Reviews {
		avg.Revenue += r.RatingRevenue
		avg.Security += r.RatingSecurity
		avg.Traffic += r.RatingTraffic
		avg.Count++
	}
	if avg.Count > 0 {
		n := float64(avg.Count)
		avg.Revenue /= n
		avg.Security /= n
		avg.Traffic /= n
	}
	return avg
}

// AddReview prepends r so reviews stay newest first.
func (s *Spot) AddReview(r Review) {
	s.Reviews = append([]Review{r}, s.Reviews...)
}

// Normalize replaces nil collections.
func (s *Spot) Normalize() {
	if s.Reviews == nil {
		s.Reviews = []Review{}
	}
}
