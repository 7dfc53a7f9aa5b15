package indicator

import (
	"testing"

	"sglgb/internal/indicator/models"
	id "sglgb/pkg/domain"
	dErrors "sglgb/pkg/domain-errors"

	"github.com/stretchr/testify/suite"
)

type TreeSuite struct {
	suite.Suite
}

func TestTreeSuite(t *testing.T) {
	suite.Run(t, new(TreeSuite))
}

func def(defID id.IndicatorID, parentID *id.IndicatorID, areaID id.AreaID) *models.Definition {
	return &models.Definition{
		ID: defID, Code: defID.String(), ParentID: parentID, AreaID: areaID,
		Rule: models.RuleAllItemsRequired,
	}
}

func parentOf(defID id.IndicatorID) *id.IndicatorID { return &defID }

func (s *TreeSuite) TestBuildsValidHierarchy() {
	tree, err := NewTree([]*models.Definition{
		def(1, nil, 1),
		def(2, parentOf(1), 1),
		def(3, parentOf(2), 1),
		def(4, parentOf(3), 1),
		def(10, nil, 2),
	})
	s.Require().NoError(err)

	s.Equal(5, tree.Len())
	s.Equal([]id.IndicatorID{1, 10}, tree.Roots())
	s.Equal([]id.IndicatorID{2}, tree.Children(1))
	s.Equal(1, tree.Depth(1))
	s.Equal(4, tree.Depth(4))

	area1 := tree.ByArea(1)
	s.Len(area1, 4)
	s.Equal(id.IndicatorID(1), area1[0].ID)
}

func (s *TreeSuite) TestRejectsInvalidHierarchies() {
	s.Run("duplicate ids", func() {
		_, err := NewTree([]*models.Definition{def(1, nil, 1), def(1, nil, 1)})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("dangling parent", func() {
		_, err := NewTree([]*models.Definition{def(1, parentOf(99), 1)})
		s.Require().Error(err)
	})

	s.Run("self-parent", func() {
		_, err := NewTree([]*models.Definition{def(1, parentOf(1), 1)})
		s.Require().Error(err)
	})

	s.Run("cycle", func() {
		_, err := NewTree([]*models.Definition{
			def(1, parentOf(2), 1),
			def(2, parentOf(1), 1),
		})
		s.Require().Error(err)
	})

	s.Run("nesting beyond four levels", func() {
		_, err := NewTree([]*models.Definition{
			def(1, nil, 1),
			def(2, parentOf(1), 1),
			def(3, parentOf(2), 1),
			def(4, parentOf(3), 1),
			def(5, parentOf(4), 1),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *TreeSuite) TestEmptyTree() {
	tree, err := NewTree(nil)
	s.Require().NoError(err)
	s.Equal(0, tree.Len())
	s.Empty(tree.Roots())
}
