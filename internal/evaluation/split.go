package evaluation

import (
	"fmt"

	"github.com/temcen/coursehybrid/pkg/models"
)

// Split holds out the last testRatio of each user's ratings, in table order.
// Users with a single rating keep it in the training part and every user with
// two or more ratings contributes at least one rating to each part.
func Split(ratings []models.Rating, testRatio float64) (train, test []models.Rating, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0, 1), got %v", testRatio)
	}

	total := make(map[string]int)
	for _, r := range ratings {
		total[r.UserID]++
	}

	held := make(map[string]int, len(total))
	for user, n := range total {
		if n < 2 {
			continue
		}
		k := int(float64(n) * testRatio)
		if k < 1 {
			k = 1
		}
		if k > n-1 {
			k = n - 1
		}
		held[user] = k
	}

	seen := make(map[string]int, len(total))
	for _, r := range ratings {
		i := seen[r.UserID]
		seen[r.UserID]++
		if i >= total[r.UserID]-held[r.UserID] {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	return train, test, nil
}
