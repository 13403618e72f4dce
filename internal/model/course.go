package model

// MandatoryRole 必修课适用的角色范围
type MandatoryRole string

const (
	MandatoryForUser  MandatoryRole = "user"
	MandatoryForAdmin MandatoryRole = "admin"
	MandatoryForAll   MandatoryRole = "all"
)

// Course 课程，由管理员创建，未发布的课程对普通用户不可见
// swagger:model Course
type Course struct {
	BaseModel
	Title            string        `gorm:"size:200;not null" json:"title"`
	Description      string        `gorm:"size:1000" json:"description"`
	Category         string        `gorm:"size:100;index" json:"category"`
	DurationMinutes  int           `gorm:"default:0" json:"durationMinutes"`
	CoverURL         string        `gorm:"size:255" json:"coverUrl"`
	IsPublished      bool          `gorm:"default:false;index" json:"isPublished"`
	IsMandatory      bool          `gorm:"default:false;index" json:"isMandatory"`
	MandatoryForRole MandatoryRole `gorm:"size:10;default:'user'" json:"mandatoryForRole"`
	Lessons          []Lesson      `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// AppliesTo 判断必修课是否适用于指定角色
func (c *Course) AppliesTo(role UserRole) bool {
	return c.MandatoryForRole == MandatoryForAll || string(c.MandatoryForRole) == string(role)
}

// Lesson 课时，OrderIndex 在课程内唯一，决定线性顺序
// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID        uint   `gorm:"index:idx_course_order,unique;not null" json:"courseId"`
	Title           string `gorm:"size:200;not null" json:"title"`
	Content         string `gorm:"type:text" json:"content"`
	OrderIndex      int    `gorm:"index:idx_course_order,unique;not null" json:"orderIndex"`
	DurationMinutes int    `gorm:"default:0" json:"durationMinutes"`
	HasQuiz         bool   `gorm:"default:false" json:"hasQuiz"`
}

func (Lesson) TableName() string {
	return "course_lessons"
}
