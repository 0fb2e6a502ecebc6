package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/carenest/CareNest/app/models"
	"github.com/carenest/CareNest/internal/pkg/cache"
	"github.com/carenest/CareNest/internal/pkg/database"
)

const (
	CacheKeyProvidersTotal = "statistics:providers:total"
	CacheKeyBookingsDaily  = "statistics:bookings:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers          = "statistics:users:total"
	CacheExpiration        = 30 * time.Minute
)

// StatisticsData holds the marketplace numbers shown on the landing page
type StatisticsData struct {
	TotalProviders int
	TodayBookings  int
	TotalUsers     int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached statistics are stale
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the update interval elapsed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Println("Updating statistics cache...")
		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded to refresh
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalProviders int64
	if err := db.Model(&models.Provider{}).Where("is_published = ?", true).Count(&totalProviders).Error; err != nil {
		log.Printf("Error counting providers: %v", err)
		return err
	}

	var todayBookings int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Booking{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayBookings).Error; err != nil {
		log.Printf("Error counting today's bookings: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyProvidersTotal, strconv.FormatInt(totalProviders, 10), CacheExpiration); err != nil {
		log.Printf("Error caching provider count: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyBookingsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayBookings, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's bookings: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: Providers: %d, Today's Bookings: %d, Users: %d",
		totalProviders, todayBookings, totalUsers)

	return nil
}

// GetStatistics returns the current marketplace statistics, serving from
// cache where possible
func GetStatistics() StatisticsData {
	return StatisticsData{
		TotalProviders: getCachedCount(CacheKeyProvidersTotal, countPublishedProviders),
		TodayBookings:  getCachedCount(fmt.Sprintf(CacheKeyBookingsDaily, time.Now().Format("2006-01-02")), countTodayBookings),
		TotalUsers:     getCachedCount(CacheKeyUsers, countUsers),
	}
}

func getCachedCount(key string, fallback func() int64) int {
	val, err := cache.Get(key)
	if err == nil {
		if n, perr := strconv.Atoi(val); perr == nil {
			return n
		}
	}

	count := fallback()
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching %s: %v", key, err)
	}
	return int(count)
}

func countPublishedProviders() int64 {
	var count int64
	if err := database.GetDB().Model(&models.Provider{}).Where("is_published = ?", true).Count(&count).Error; err != nil {
		log.Printf("Error counting providers: %v", err)
	}
	return count
}

func countTodayBookings() int64 {
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	var count int64
	if err := database.GetDB().Model(&models.Booking{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
		log.Printf("Error counting today's bookings: %v", err)
	}
	return count
}

func countUsers() int64 {
	var count int64
	if err := database.GetDB().Model(&models.User{}).Count(&count).Error; err != nil {
		log.Printf("Error counting users: %v", err)
	}
	return count
}
