package main

import (
	"context"
	"fmt"
	"time"

	"github.com/biletnik/biletnik-backend/internal/config"
	"github.com/biletnik/biletnik-backend/internal/database"
	"github.com/biletnik/biletnik-backend/internal/logger"
	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/biletnik/biletnik-backend/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	docs := store.NewDocumentStore(rdb, log)

	if existing := docs.Subjects(ctx); len(existing) > 0 {
		fmt.Printf("Subjects document already has %d subjects, leaving it alone\n", len(existing))
		return
	}

	subjects := []model.Subject{
		{
			Name: "Математический анализ",
			Questions: []string{
				"Сформулируйте определение предела функции в точке.",
				"Докажите теорему Лагранжа о среднем значении.",
				"Исследуйте на сходимость ряд с общим членом 1/n^2.",
				"Найдите производную сложной функции и объясните цепное правило.",
			},
		},
		{
			Name: "Базы данных",
			Questions: []string{
				"Опишите уровни изоляции транзакций и аномалии каждого уровня.",
				"Что такое нормальные формы? Приведите пример приведения к 3НФ.",
				"Сравните B-tree и hash-индексы.",
				"Объясните, как работает MVCC в PostgreSQL.",
			},
		},
		{
			Name: "Сети ЭВМ",
			Questions: []string{
				"Опишите трёхстороннее рукопожатие TCP.",
				"Чем отличается маршрутизация от коммутации?",
				"Объясните назначение протокола ARP.",
			},
		},
	}

	if err := docs.SaveSubjects(ctx, subjects); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed subjects")
	}

	fmt.Printf("Seeded %d subjects\n", len(subjects))
}
